package imgstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/ksid"
)

// DirStore stores each image as one file named {id}{ext} in a directory.
//
// The extension is derived from the MIME type on save and is the only
// metadata kept on disk; Load, Delete and List reconstruct the MIME type
// purely from the extension. The directory is created lazily on the first
// save, so pointing a DirStore at a nonexistent path is fine.
type DirStore struct {
	dir string
	// maxBytes caps Save payloads. 0 means uncapped; local disk is assumed
	// large relative to clipboard images.
	maxBytes int64
}

var _ Store = &DirStore{}

// NewDirStore returns a store rooted at dir. maxBytes of 0 disables the
// size cap.
func NewDirStore(dir string, maxBytes int64) *DirStore {
	return &DirStore{dir: dir, maxBytes: maxBytes}
}

// Save implements Store.
func (s *DirStore) Save(ctx context.Context, data []byte, mt MimeType) (Record, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Record{}, ErrTooLarge
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Record{}, &WriteError{Err: err}
	}
	mt = Normalize(mt)
	id := ksid.NewID().String()
	path := filepath.Join(s.dir, id+ExtForMime(mt))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Record{}, &WriteError{Err: err}
	}
	return Record{
		ID:        id,
		MimeType:  mt,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}, nil
}

// Load implements Store.
func (s *DirStore) Load(ctx context.Context, id string) ([]byte, MimeType, error) {
	name, mt, err := s.find(id)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			// Deleted between the scan and the read.
			return nil, "", ErrNotFound
		}
		return nil, "", &ReadError{ID: id, Err: err}
	}
	return data, mt, nil
}

// Delete implements Store.
func (s *DirStore) Delete(ctx context.Context, id string) (bool, error) {
	name, _, err := s.find(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List implements Store.
func (s *DirStore) List(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing saved yet.
			return nil, nil
		}
		return nil, &ReadError{Err: err}
	}
	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ext := splitName(entry.Name())
		if !validID(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		records = append(records, Record{
			ID:        id,
			MimeType:  MimeForExt(ext),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// find scans the directory for the file holding id. The reference only
// carries the id, not the extension, so the lookup cannot assume a format.
func (s *DirStore) find(id string) (string, MimeType, error) {
	if !validID(id) {
		return "", "", ErrNotFound
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNotFound
		}
		return "", "", &ReadError{ID: id, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ext := splitName(entry.Name()); name == id {
			return entry.Name(), MimeForExt(ext), nil
		}
	}
	return "", "", ErrNotFound
}

// splitName splits a file name into the id part and the extension. Ids never
// contain dots, so everything from the first dot on is the extension.
func splitName(name string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
