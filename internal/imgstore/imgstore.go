// Package imgstore persists pasted clipboard images.
//
// A store keeps immutable image records addressed by opaque, time-sortable
// IDs. Two implementations exist: [DirStore] keeps one file per image in a
// directory, [DBStore] keeps images as rows in a SQLite database. Both are
// substitutable behind [Store]; the backend is chosen once at startup and
// callers never branch on the concrete type.
package imgstore

import (
	"context"
	"time"
)

// Record is the metadata of one stored image. The payload bytes are owned by
// the store and are only returned by [Store.Load].
type Record struct {
	// ID is an opaque identifier, unique within the store, assigned at save
	// time and immutable thereafter.
	ID string `json:"id"`
	// MimeType is one of the supported image MIME types.
	MimeType MimeType `json:"mime_type"`
	// Size is the byte length of the stored payload.
	Size int64 `json:"size"`
	// CreatedAt is set once when the record is saved.
	CreatedAt time.Time `json:"created_at"`
}

// Store is the capability set shared by all backends.
type Store interface {
	// Save writes a new immutable record and returns it.
	//
	// Returns ErrTooLarge before any write when the payload exceeds the
	// store's size cap. Medium failures are reported as *WriteError and
	// leave no record behind.
	Save(ctx context.Context, data []byte, mt MimeType) (Record, error)

	// Load returns the exact bytes and MIME type previously saved.
	//
	// A missing id is not a failure of the store: it is reported as
	// ErrNotFound and callers are expected to branch on it. Medium
	// failures are reported as *ReadError.
	Load(ctx context.Context, id string) ([]byte, MimeType, error)

	// Delete removes a record. Deleting a nonexistent id returns false
	// and no error.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns metadata for all records, ordered by id ascending.
	// Since ids are time-sortable this is roughly creation order.
	List(ctx context.Context) ([]Record, error)
}

// validID reports whether s looks like a backend-issued id. The id charset
// doubles as a path-traversal guard for DirStore file names.
func validID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z')
		if !ok {
			return false
		}
	}
	return true
}
