package resolve

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/maruel/mdpaste/internal/imgstore"
)

// Arena holds the ephemeral renderable URLs: random tokens backed by
// in-memory image bytes. A token stays valid from Add until Revoke; serving
// a revoked or unknown token fails. The resolver owns the acquire/release
// discipline, the arena is just the registry.
type Arena struct {
	mu      sync.Mutex
	entries map[string]arenaEntry
}

type arenaEntry struct {
	data []byte
	mt   imgstore.MimeType
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{entries: make(map[string]arenaEntry)}
}

// Add registers data under a fresh random token and returns the token.
func (a *Arena) Add(data []byte, mt imgstore.MimeType) string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	token := fmt.Sprintf("%x", b)
	a.mu.Lock()
	a.entries[token] = arenaEntry{data: data, mt: mt}
	a.mu.Unlock()
	return token
}

// Get returns the bytes behind a live token.
func (a *Arena) Get(token string) ([]byte, imgstore.MimeType, bool) {
	a.mu.Lock()
	e, ok := a.entries[token]
	a.mu.Unlock()
	return e.data, e.mt, ok
}

// Revoke releases a token. Revoking an unknown token is a no-op so that
// release paths do not need to track whether teardown already ran.
func (a *Arena) Revoke(token string) {
	a.mu.Lock()
	delete(a.entries, token)
	a.mu.Unlock()
}

// Len returns the number of live tokens.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
