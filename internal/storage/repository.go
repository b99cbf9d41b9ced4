package storage

import "time"

// SessionInfo is the listing view of a persisted session.
type SessionInfo struct {
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	TurnCount int       `json:"turnCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository is the persistence slot for serialized session snapshots. The
// core never performs its own file I/O; every save path goes through here.
type Repository interface {
	// SaveSession upserts the snapshot for a session.
	SaveSession(sessionID, name string, turnCount int, snapshot []byte) error
	// GetSnapshot returns the stored snapshot bytes for a session.
	GetSnapshot(sessionID string) ([]byte, error)
	ListSessions() ([]SessionInfo, error)
	DeleteSession(sessionID string) error
}
