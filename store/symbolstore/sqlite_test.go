package symbolstore

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSymbolStorePutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	defs := []Symbol{{Name: "fetchpaper", Path: "a.go", Line: 5}}
	uses := []Symbol{{Name: "helper", Path: "a.go", Line: 10}}
	if err := s.Put(ctx, "abc123:go-ast-v1", defs, uses); err != nil {
		t.Fatal(err)
	}

	gotDefs, gotUses, err := s.Get(ctx, "abc123:go-ast-v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gotDefs) != 1 || gotDefs[0].Name != "fetchpaper" {
		t.Errorf("defs = %+v", gotDefs)
	}
	if len(gotUses) != 1 || gotUses[0].Name != "helper" {
		t.Errorf("uses = %+v", gotUses)
	}
}

func TestSymbolStoreHas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected Has to be false for unknown key")
	}

	s.Put(ctx, "present", []Symbol{{Name: "x", Path: "a.go", Line: 1}}, nil)
	ok, err = s.Has(ctx, "present")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected Has to be true after Put")
	}
}

func TestSymbolStorePutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Put(ctx, "key", []Symbol{{Name: "old", Path: "a.go", Line: 1}}, nil)
	s.Put(ctx, "key", []Symbol{{Name: "new", Path: "a.go", Line: 2}}, nil)

	defs, _, _ := s.Get(ctx, "key")
	if len(defs) != 1 || defs[0].Name != "new" {
		t.Errorf("expected replaced defs, got %+v", defs)
	}
}

func TestSymbolStoreFindByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Put(ctx, "key1", []Symbol{{Name: "shared", Path: "a.go", Line: 1}}, nil)
	s.Put(ctx, "key2", []Symbol{{Name: "shared", Path: "b.go", Line: 7}}, nil)

	hits, err := s.FindByName(ctx, "def", "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected hits across both files, got %+v", hits)
	}
}
