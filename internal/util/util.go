// Package util provides content hashing and markdown front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
	"github.com/mmarkdown/mmark/v2/mast"
)

var frontMatterDelimiter = []byte("%%%")

// FrontMatter is the mmark title block plus the keys inkpad understands on import.
type FrontMatter struct {
	*mast.TitleData
	Cover   string    `toml:"cover"`
	Updated time.Time `toml:"updated"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// SplitFrontMatter parses a leading %%% TOML block and returns it together with the
// remaining markdown body.
func SplitFrontMatter(md []byte) (*FrontMatter, []byte, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	if len(md) < 2*len(frontMatterDelimiter) || !bytes.HasPrefix(md, frontMatterDelimiter) {
		return nil, nil, fmt.Errorf("invalid front matter format")
	}

	rest := md[len(frontMatterDelimiter):]
	end := bytes.Index(rest, frontMatterDelimiter)
	if end == -1 {
		return nil, nil, fmt.Errorf("invalid front matter format")
	}

	fm := &FrontMatter{TitleData: &mast.TitleData{}}
	if _, err := toml.Decode(string(rest[:end]), fm); err != nil {
		return nil, nil, fmt.Errorf("failed to decode front matter: %w", err)
	}
	if fm.Language == "" {
		fm.Language = "en"
	}

	body := bytes.TrimLeft(rest[end+len(frontMatterDelimiter):], "\n")
	return fm, body, nil
}
