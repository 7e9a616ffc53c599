package render

import (
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/opd-ai/go-scenic/internal/store"
)

func TestFaceCache(t *testing.T) {
	fonts := store.NewFontStore()
	parses := 0
	c := newFaceCache(func(data []byte) (int, error) {
		parses++
		return len(data), nil
	}, func() int { return -1 })

	if v, err := c.face(nil); err != nil || v != -1 {
		t.Fatalf("face(nil) = %d, %v, want fallback", v, err)
	}

	f, err := fonts.Put([]byte("sans"), goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if v, _ := c.face(f); v != len(goregular.TTF) {
			t.Fatalf("face = %d", v)
		}
	}
	if parses != 1 {
		t.Errorf("parses = %d after repeated lookups, want 1", parses)
	}

	f, err = fonts.Put([]byte("sans"), gobold.TTF)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := c.face(f); v != len(gobold.TTF) || parses != 2 {
		t.Errorf("after replace face = %d, parses = %d", v, parses)
	}
	if c.len() != 1 {
		t.Errorf("len = %d, want one entry per id", c.len())
	}

	c.prune(fonts)
	if c.len() != 1 {
		t.Errorf("prune dropped a live font")
	}
	fonts.Delete("sans")
	c.prune(fonts)
	if c.len() != 0 {
		t.Errorf("len = %d after delete and prune", c.len())
	}
}
