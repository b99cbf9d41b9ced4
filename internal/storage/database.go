package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SessionRecord is the persisted row for one session: identity columns for
// listing plus the opaque serialized snapshot.
type SessionRecord struct {
	gorm.Model
	SessionID string `gorm:"uniqueIndex"`
	Name      string `gorm:"size:64"`
	TurnCount int
	Snapshot  []byte `gorm:"type:blob"`
}

func (SessionRecord) TableName() string { return "session_snapshots" }

// OpenAndMigrate opens (creating directories as needed) the sqlite database
// at the given path and keeps the schema updated via AutoMigrate.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}
