package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pbellini/narrastats/internal/numutil"
	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/session"
	"github.com/pbellini/narrastats/internal/stat"
)

type rawConfig struct {
	// StatList seeds every newly created session with these stats.
	StatList []stat.Definition `json:"stat_list"`
	Server   *struct {
		Address string `json:"address"`
	} `json:"server"`
	// Optional tag grammar override. Defaults to {{ }} with a colon
	// separator and case-insensitive identifiers.
	Parser *struct {
		Open          string `json:"open"`
		Close         string `json:"close"`
		Separator     string `json:"separator"`
		CaseSensitive bool   `json:"case_sensitive"`
	} `json:"parser"`
	// Optional default summary rendering: none | compact | verbose.
	SummaryMode string `json:"summary_mode"`
	// Optional database path; the NARRASTATS_DB env var wins over this.
	DBPath string `json:"db_path"`
}

// LoadedConfig contains the validated server settings and session seeds.
type LoadedConfig struct {
	Stats         []stat.Definition
	ServerAddress string
	Grammar       parser.Config
	SummaryMode   session.SummaryMode
	DBPath        string
}

// LoadConfig reads the configuration file at path, applies defaults and
// validates it. The stat list may be empty (sessions can add stats at
// runtime) but duplicate stat ids are rejected.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Cross-entry validation: stat ids must be unique after normalization
	// so two entries cannot silently collide in a session registry.
	seen := make(map[string]struct{}, len(rc.StatList))
	for _, def := range rc.StatList {
		id := numutil.SanitizeID(def.ID)
		if id == "" {
			id = numutil.SanitizeID(def.Name)
		}
		if id == "" {
			return nil, fmt.Errorf("config file %s: stat entry missing 'id' and 'name'", path)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("config file %s: duplicate stat id '%s'", path, id)
		}
		seen[id] = struct{}{}
	}

	grammar := parser.DefaultConfig()
	if rc.Parser != nil {
		grammar = parser.Config{
			Open:          rc.Parser.Open,
			Close:         rc.Parser.Close,
			Separator:     rc.Parser.Separator,
			CaseSensitive: rc.Parser.CaseSensitive,
		}
		if err := grammar.Validate(); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	return &LoadedConfig{
		Stats:         rc.StatList,
		ServerAddress: addr,
		Grammar:       grammar,
		SummaryMode:   session.ParseSummaryMode(rc.SummaryMode),
		DBPath:        rc.DBPath,
	}, nil
}
