// Package uploads turns uploaded files into object references usable as an image src.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const BlobScheme = "blob:"

var (
	ErrTooLarge = errors.New("upload too large")
	ErrNotImage = errors.New("upload is not an image")
	ErrNotFound = errors.New("upload not found")
)

var uploadsLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	uploadsLogger = l
}

// Store persists an uploaded file and returns the reference to use as its src.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

type Object struct {
	Filename    string
	ContentType string
	Data        []byte
}

// readLimited reads at most limit bytes, failing with ErrTooLarge beyond that.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func checkImage(contentType string) error {
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}
	return nil
}

// MemoryStore keeps uploads for the lifetime of the process, like a browser object URL
// lives for the page session.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	limit   int64
}

func NewMemoryStore(limit int64) *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object), limit: limit}
}

func (m *MemoryStore) Put(_ context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := checkImage(contentType); err != nil {
		return "", err
	}
	data, err := readLimited(r, m.limit)
	if err != nil {
		return "", err
	}

	ref := BlobScheme + uuid.New().String()
	m.mu.Lock()
	m.objects[ref] = Object{Filename: path.Base(filename), ContentType: contentType, Data: data}
	m.mu.Unlock()

	uploadsLogger.Debug().Str("ref", ref).Int("size", len(data)).Msg("Upload stored in memory")
	return ref, nil
}

func (m *MemoryStore) Get(ref string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[ref]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	obj.Data = bytes.Clone(obj.Data)
	return obj, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
