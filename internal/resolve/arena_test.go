package resolve

import (
	"testing"

	"github.com/maruel/mdpaste/internal/imgstore"
)

func TestArena(t *testing.T) {
	a := NewArena()
	tok1 := a.Add([]byte("one"), imgstore.MimePNG)
	tok2 := a.Add([]byte("two"), imgstore.MimeGIF)
	if tok1 == tok2 {
		t.Fatal("tokens must be distinct")
	}
	if data, mt, ok := a.Get(tok1); !ok || string(data) != "one" || mt != imgstore.MimePNG {
		t.Errorf("Get(tok1) = (%q, %s, %v)", data, mt, ok)
	}

	a.Revoke(tok1)
	if _, _, ok := a.Get(tok1); ok {
		t.Error("revoked token still resolvable")
	}
	if _, _, ok := a.Get(tok2); !ok {
		t.Error("unrelated token revoked")
	}
	// Double revoke is a no-op.
	a.Revoke(tok1)
	a.Revoke("nonexistent")
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}
