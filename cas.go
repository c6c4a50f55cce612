package scribe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ContentStore is a content-addressable blob store: blobs live under
// blobs/<sha256>, metadata sidecars under meta/<sha256>.json. The key is
// sha256(content):parserVersion — changing the parser invalidates
// lookups against content parsed by an older version without touching
// the blob itself.
type ContentStore struct {
	base string
}

// NewContentStore creates a ContentStore rooted at baseDir, creating the
// blobs/ and meta/ subdirectories if needed.
func NewContentStore(baseDir string) (*ContentStore, error) {
	c := &ContentStore{base: baseDir}
	if err := os.MkdirAll(c.blobsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("cas: create blobs dir: %w", err)
	}
	if err := os.MkdirAll(c.metaDir(), 0o755); err != nil {
		return nil, fmt.Errorf("cas: create meta dir: %w", err)
	}
	return c, nil
}

func (c *ContentStore) blobsDir() string { return filepath.Join(c.base, "blobs") }
func (c *ContentStore) metaDir() string  { return filepath.Join(c.base, "meta") }

// MakeKey derives the storage key for content parsed with parserVersion.
func MakeKey(content []byte, parserVersion string) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]) + ":" + parserVersion
}

func (c *ContentStore) paths(key string) (blobPath, metaPath string) {
	sha := key
	for i, r := range key {
		if r == ':' {
			sha = key[:i]
			break
		}
	}
	return filepath.Join(c.blobsDir(), sha), filepath.Join(c.metaDir(), sha+".json")
}

// Put writes content under its derived key, idempotently: an existing
// blob is never rewritten, but metadata is always refreshed so repeated
// fetches of the same content keep the most recent provenance.
func (c *ContentStore) Put(content []byte, meta BlobMeta) (string, error) {
	meta.ParserVersion = firstNonEmpty(meta.ParserVersion, "v1")
	key := MakeKey(content, meta.ParserVersion)
	if err := c.PutAt(key, content, meta); err != nil {
		return "", err
	}
	return key, nil
}

// PutAt writes content under an explicit key instead of one derived from
// content's own bytes. Callers that cache a derived artifact (e.g. a parsed
// summary) under the key of the input it was derived from — so a later
// lookup by that same input hits — use this instead of Put, which would key
// the artifact by its own hash and never match such a lookup.
func (c *ContentStore) PutAt(key string, content []byte, meta BlobMeta) error {
	blobPath, metaPath := c.paths(key)

	if _, err := os.Stat(blobPath); os.IsNotExist(err) {
		if err := os.WriteFile(blobPath, content, 0o644); err != nil {
			return fmt.Errorf("cas: write blob: %w", err)
		}
	}

	meta.Size = int64(len(content))
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("cas: marshal meta: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("cas: write meta: %w", err)
	}
	return nil
}

// Get reads content and metadata for key. A missing or corrupted blob or
// metadata sidecar is treated as a cache miss (nil, nil, nil) rather than
// an error — the caller re-fetches or re-derives rather than failing the
// whole run over a damaged cache entry.
func (c *ContentStore) Get(key string) ([]byte, *BlobMeta, error) {
	blobPath, metaPath := c.paths(key)

	var content []byte
	if data, err := os.ReadFile(blobPath); err == nil {
		content = data
	}

	var meta *BlobMeta
	if data, err := os.ReadFile(metaPath); err == nil {
		var m BlobMeta
		if json.Unmarshal(data, &m) == nil {
			meta = &m
		}
	}
	return content, meta, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
