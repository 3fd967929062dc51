package imgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maruel/ksid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MaxBlobBytes is the hard size cap enforced by DBStore on save.
const MaxBlobBytes = 2 << 20 // 2 MiB

// imageRow is one key/value entry: the payload plus its structured metadata.
type imageRow struct {
	ID        string `gorm:"primaryKey"`
	Mime      string `gorm:"not null"`
	Size      int64  `gorm:"not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
}

func (imageRow) TableName() string {
	return "images"
}

// DBStore stores images as rows in a SQLite database keyed by id.
//
// This is the size-constrained backend: payloads over MaxBlobBytes are
// rejected before any write. No filesystem paths are ever produced; the
// payload only exists inside the database file.
type DBStore struct {
	db *gorm.DB
}

var _ Store = &DBStore{}

// NewDBStore opens (creating if needed) the database at path and migrates
// the schema.
func NewDBStore(path string) (*DBStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&imageRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &DBStore{db: db}, nil
}

// Save implements Store.
func (s *DBStore) Save(ctx context.Context, data []byte, mt MimeType) (Record, error) {
	if int64(len(data)) > MaxBlobBytes {
		return Record{}, ErrTooLarge
	}
	row := &imageRow{
		ID:        ksid.NewID().String(),
		Mime:      string(Normalize(mt)),
		Size:      int64(len(data)),
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return Record{}, &WriteError{Err: err}
	}
	return Record{
		ID:        row.ID,
		MimeType:  MimeType(row.Mime),
		Size:      row.Size,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Load implements Store.
func (s *DBStore) Load(ctx context.Context, id string) ([]byte, MimeType, error) {
	if !validID(id) {
		return nil, "", ErrNotFound
	}
	var row imageRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", &ReadError{ID: id, Err: err}
	}
	return row.Data, MimeType(row.Mime), nil
}

// Delete implements Store.
func (s *DBStore) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res := s.db.WithContext(ctx).Delete(&imageRow{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List implements Store.
func (s *DBStore) List(ctx context.Context) ([]Record, error) {
	var rows []imageRow
	err := s.db.WithContext(ctx).
		Select("id", "mime", "size", "created_at").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ID:        row.ID,
			MimeType:  MimeType(row.Mime),
			Size:      row.Size,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}
