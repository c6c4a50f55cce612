package scribe

import (
	"testing"
)

func TestContentStorePutGet(t *testing.T) {
	cs, err := NewContentStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	content := []byte("example body")
	key, err := cs.Put(content, BlobMeta{URL: "https://example.com", ParserVersion: "jina-1.0"})
	if err != nil {
		t.Fatal(err)
	}

	got, meta, err := cs.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}
	if meta == nil || meta.URL != "https://example.com" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", meta.Size, len(content))
	}
}

func TestContentStoreIdempotentBlobWrite(t *testing.T) {
	cs, _ := NewContentStore(t.TempDir())
	content := []byte("same content")

	k1, err := cs.Put(content, BlobMeta{URL: "https://a.test", ParserVersion: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	k2, err := cs.Put(content, BlobMeta{URL: "https://b.test", ParserVersion: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Fatalf("expected same key for same content+version, got %q vs %q", k1, k2)
	}

	_, meta, _ := cs.Get(k2)
	if meta.URL != "https://b.test" {
		t.Errorf("expected metadata to refresh to latest put, got %q", meta.URL)
	}
}

func TestContentStoreDifferentParserVersionsDistinctKeys(t *testing.T) {
	cs, _ := NewContentStore(t.TempDir())
	content := []byte("same bytes")

	k1, _ := cs.Put(content, BlobMeta{ParserVersion: "v1"})
	k2, _ := cs.Put(content, BlobMeta{ParserVersion: "v2"})
	if k1 == k2 {
		t.Error("expected distinct keys for distinct parser versions")
	}
}

func TestContentStorePutAtExplicitKey(t *testing.T) {
	cs, _ := NewContentStore(t.TempDir())
	content := []byte("derived artifact bytes")
	key := MakeKey([]byte("source input bytes"), "v1")

	if err := cs.PutAt(key, content, BlobMeta{ParserVersion: "v1"}); err != nil {
		t.Fatal(err)
	}

	got, meta, err := cs.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}
	if meta == nil {
		t.Fatal("expected metadata to be written")
	}

	// Put derives its key from content's own bytes, which must differ
	// from the explicit key PutAt stored under — proving the two are
	// genuinely independent write paths.
	if derivedKey, _ := cs.Put(content, BlobMeta{ParserVersion: "v1"}); derivedKey == key {
		t.Fatal("expected PutAt's explicit key to differ from Put's content-derived key")
	}
}

func TestContentStoreMissingKeyIsMiss(t *testing.T) {
	cs, _ := NewContentStore(t.TempDir())
	content, meta, err := cs.Get("deadbeef:v1")
	if err != nil {
		t.Fatalf("missing key should not error, got %v", err)
	}
	if content != nil || meta != nil {
		t.Errorf("expected nil content and meta for missing key, got %v %v", content, meta)
	}
}
