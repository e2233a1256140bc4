package uploads

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(8)

	t.Run("Stores and returns a blob reference", func(t *testing.T) {
		ref, err := m.Put(ctx, "dir/cat.png", "image/png", strings.NewReader("png!"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !strings.HasPrefix(ref, BlobScheme) {
			t.Errorf("Expected a blob reference, got %q", ref)
		}
		obj, err := m.Get(ref)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(obj.Data) != "png!" || obj.Filename != "cat.png" || obj.ContentType != "image/png" {
			t.Errorf("Unexpected object %+v", obj)
		}
	})

	t.Run("References are unique", func(t *testing.T) {
		a, _ := m.Put(ctx, "a.png", "image/png", strings.NewReader("a"))
		b, _ := m.Put(ctx, "a.png", "image/png", strings.NewReader("a"))
		if a == b {
			t.Error("Expected distinct references")
		}
	})

	t.Run("Rejects oversized uploads", func(t *testing.T) {
		before := m.Len()
		_, err := m.Put(ctx, "big.png", "image/png", strings.NewReader("123456789"))
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("Expected ErrTooLarge, got %v", err)
		}
		if m.Len() != before {
			t.Error("Rejected upload must not be stored")
		}
	})

	t.Run("Rejects non-images", func(t *testing.T) {
		_, err := m.Put(ctx, "notes.txt", "text/plain", strings.NewReader("x"))
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("Expected ErrNotImage, got %v", err)
		}
	})

	t.Run("Unknown reference", func(t *testing.T) {
		if _, err := m.Get("blob:nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()

	t.Run("Puts the object and returns its public URL", func(t *testing.T) {
		fake := &fakePutter{}
		s := NewS3Store(fake, "media", "https://cdn.example.com/", 1024)

		ref, err := s.Put(ctx, "Cover.JPG", "image/jpeg", strings.NewReader("jpeg"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		key := aws.ToString(fake.input.Key)
		if !strings.HasPrefix(key, "uploads/") || !strings.HasSuffix(key, ".jpg") {
			t.Errorf("Unexpected key %q", key)
		}
		if ref != "https://cdn.example.com/"+key {
			t.Errorf("Unexpected reference %q", ref)
		}
		if aws.ToString(fake.input.Bucket) != "media" || aws.ToString(fake.input.ContentType) != "image/jpeg" {
			t.Errorf("Unexpected input %+v", fake.input)
		}
		if fake.body != "jpeg" {
			t.Errorf("Unexpected body %q", fake.body)
		}
	})

	t.Run("Propagates client errors", func(t *testing.T) {
		fake := &fakePutter{err: errors.New("denied")}
		s := NewS3Store(fake, "media", "https://cdn.example.com", 1024)
		if _, err := s.Put(ctx, "a.png", "image/png", strings.NewReader("a")); err == nil {
			t.Error("Expected an error")
		}
	})
}
