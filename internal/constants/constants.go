package constants

// Centralized constants for env keys, grammar defaults and routes.
const (
	// Environment variable keys
	EnvConfigPath = "NARRASTATS_CONFIG"
	EnvDBPath     = "NARRASTATS_DB"

	// Default locations used when the env vars above are unset.
	DefaultConfigPath = "./narrastats_config.json"
	DefaultDBPath     = "./data/narrastats.db"

	// Tag grammar defaults. Commands embedded in narrative text look like
	// {{hp:-5}} (relative change) or {{hp:=20}} (absolute assignment).
	DefaultOpenDelim  = "{{"
	DefaultCloseDelim = "}}"
	DefaultSeparator  = ":"

	// Absolute-assignment marker inside a command value expression.
	SetMarker = "="

	// Default numeric bounds applied when a stat definition omits them.
	DefaultMinValue = 0
	DefaultMaxValue = 100

	// Change history kept per stat.
	HistoryCapacity = 10
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/health"
	RouteSessions      = "/sessions"
	RouteSessionByID   = "/sessions/:sessionID"
	RouteSessionDelete = "/sessions/:sessionID"
	RouteMessage       = "/sessions/:sessionID/message"
	RouteTick          = "/sessions/:sessionID/tick"
	RouteReset         = "/sessions/:sessionID/reset"
	RouteSummary       = "/sessions/:sessionID/summary"
	RouteExport        = "/sessions/:sessionID/export"
	RouteImport        = "/sessions/:sessionID/import"
	RouteParserConfig  = "/sessions/:sessionID/parser"
	RouteStats         = "/sessions/:sessionID/stats"
	RouteStatByID      = "/sessions/:sessionID/stats/:statID"
)

// Common JSON response keys
const (
	JSONKeyError  = "error"
	JSONKeyStatus = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrInvalidSessionID    = "Invalid session ID"
	ErrSessionNotFound     = "Session not found"
	ErrFailedListSessions  = "Failed to list sessions"
	ErrFailedCreateSession = "Failed to create session"
	ErrFailedSaveSession   = "Failed to save session"
	ErrFailedDeleteSession = "Failed to delete session"
	ErrFailedEncodeState   = "Failed to encode session state"
	ErrImportRejected      = "Import payload rejected; current state unchanged"
	ErrInvalidGrammar      = "Invalid parser grammar"
	ErrStatNotFound        = "Stat not found"
	ErrStatIDRequired      = "stat id is required"
)

// Logging field names
const (
	LogFieldSessionID = "session_id"
	LogFieldStatID    = "stat_id"
	LogFieldModID     = "modifier_id"
	LogFieldAddr      = "addr"
	LogFieldTurn      = "turn"
)
