package storage

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository wraps an opened gorm DB as a session repository.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SaveSession(sessionID, name string, turnCount int, snapshot []byte) error {
	rec := SessionRecord{SessionID: sessionID, Name: name, TurnCount: turnCount, Snapshot: snapshot}
	// Upsert keyed by session_id so repeated saves update the same row.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "turn_count", "snapshot", "updated_at"}),
	}).Create(&rec).Error
}

func (r *sqliteRepository) GetSnapshot(sessionID string) ([]byte, error) {
	var rec SessionRecord
	if err := r.db.Where("session_id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, err
	}
	return rec.Snapshot, nil
}

func (r *sqliteRepository) ListSessions() ([]SessionInfo, error) {
	var recs []SessionRecord
	if err := r.db.Order("updated_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]SessionInfo, 0, len(recs))
	for _, rec := range recs {
		out = append(out, SessionInfo{
			SessionID: rec.SessionID,
			Name:      rec.Name,
			TurnCount: rec.TurnCount,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

func (r *sqliteRepository) DeleteSession(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&SessionRecord{}).Error
}
