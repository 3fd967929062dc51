package imgstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
)

// newStoreFuncs builds each backend fresh in a temp location so both run the
// same contract tests.
var newStoreFuncs = map[string]func(t *testing.T) Store{
	"DirStore": func(t *testing.T) Store {
		return NewDirStore(filepath.Join(t.TempDir(), "images"), 0)
	},
	"DBStore": func(t *testing.T) Store {
		s, err := NewDBStore(filepath.Join(t.TempDir(), "images.db"))
		if err != nil {
			t.Fatalf("failed to create db store: %v", err)
		}
		return s
	},
}

func TestStore_SaveLoadFidelity(t *testing.T) {
	mimes := []MimeType{MimePNG, MimeJPEG, MimeGIF, MimeWebP, MimeSVG, MimeBMP}
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			for _, mt := range mimes {
				payload := append([]byte("payload for "), mt...)
				rec, err := s.Save(ctx, payload, mt)
				if err != nil {
					t.Fatalf("Save(%s): %v", mt, err)
				}
				if rec.ID == "" {
					t.Fatalf("Save(%s) returned empty id", mt)
				}
				if rec.MimeType != mt {
					t.Errorf("Save(%s) record mime = %s", mt, rec.MimeType)
				}
				if rec.Size != int64(len(payload)) {
					t.Errorf("Save(%s) size = %d, want %d", mt, rec.Size, len(payload))
				}
				data, gotMt, err := s.Load(ctx, rec.ID)
				if err != nil {
					t.Fatalf("Load(%s): %v", rec.ID, err)
				}
				if !bytes.Equal(data, payload) {
					t.Errorf("Load(%s) returned different bytes", rec.ID)
				}
				if gotMt != mt {
					t.Errorf("Load(%s) mime = %s, want %s", rec.ID, gotMt, mt)
				}
			}
		})
	}
}

func TestStore_UnknownMimeNormalizedToPNG(t *testing.T) {
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			rec, err := s.Save(ctx, []byte("data"), "application/octet-stream")
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if rec.MimeType != MimePNG {
				t.Errorf("record mime = %s, want %s", rec.MimeType, MimePNG)
			}
			_, mt, err := s.Load(ctx, rec.ID)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if mt != MimePNG {
				t.Errorf("loaded mime = %s, want %s", mt, MimePNG)
			}
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			if _, _, err := s.Load(ctx, "0000000000a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(never saved) = %v, want ErrNotFound", err)
			}

			rec, err := s.Save(ctx, []byte("data"), MimePNG)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if deleted, err := s.Delete(ctx, rec.ID); err != nil || !deleted {
				t.Fatalf("Delete = (%v, %v), want (true, nil)", deleted, err)
			}
			if _, _, err := s.Load(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(deleted) = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_DeleteIdempotent(t *testing.T) {
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			if deleted, err := s.Delete(ctx, "0000000000a"); err != nil || deleted {
				t.Errorf("Delete(missing) = (%v, %v), want (false, nil)", deleted, err)
			}
			rec, err := s.Save(ctx, []byte("data"), MimePNG)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if deleted, err := s.Delete(ctx, rec.ID); err != nil || !deleted {
				t.Errorf("first Delete = (%v, %v), want (true, nil)", deleted, err)
			}
			if deleted, err := s.Delete(ctx, rec.ID); err != nil || deleted {
				t.Errorf("second Delete = (%v, %v), want (false, nil)", deleted, err)
			}
		})
	}
}

func TestStore_ListOrderedByID(t *testing.T) {
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			want := map[string]MimeType{}
			for _, mt := range []MimeType{MimeGIF, MimePNG, MimeJPEG} {
				rec, err := s.Save(ctx, []byte("data"), mt)
				if err != nil {
					t.Fatalf("Save: %v", err)
				}
				want[rec.ID] = mt
			}
			records, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(records) != len(want) {
				t.Fatalf("List returned %d records, want %d", len(records), len(want))
			}
			if !sort.SliceIsSorted(records, func(i, j int) bool { return records[i].ID < records[j].ID }) {
				t.Error("List not ordered by id")
			}
			for _, rec := range records {
				if want[rec.ID] != rec.MimeType {
					t.Errorf("record %s mime = %s, want %s", rec.ID, rec.MimeType, want[rec.ID])
				}
				if rec.Size != int64(len("data")) {
					t.Errorf("record %s size = %d", rec.ID, rec.Size)
				}
				if rec.CreatedAt.IsZero() {
					t.Errorf("record %s has zero CreatedAt", rec.ID)
				}
			}
		})
	}
}

func TestStore_EmptyList(t *testing.T) {
	for name, newStore := range newStoreFuncs {
		t.Run(name, func(t *testing.T) {
			records, err := newStore(t).List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("List on empty store returned %d records", len(records))
			}
		})
	}
}
