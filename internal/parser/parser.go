// Package parser extracts structured stat-mutation commands embedded in
// freeform narrative text. The tag grammar is configurable: with the
// defaults, {{hp:-5}} is a relative change and {{hp:=20}} an absolute
// assignment. Everything outside command tokens is narrative and ignored.
package parser

import (
	"errors"
	"strings"

	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/numutil"
)

// CommandKind distinguishes relative changes from absolute assignments.
type CommandKind string

const (
	// KindModify applies the value as a signed delta.
	KindModify CommandKind = "MODIFY"
	// KindSet assigns the value absolutely.
	KindSet CommandKind = "SET"
)

// Command is an ephemeral parsed mutation instruction. It is consumed
// immediately by the session controller and never persisted.
type Command struct {
	StatID string      `json:"statId"`
	Kind   CommandKind `json:"kind"`
	Value  float64     `json:"value"`
}

// Config is the explicit tag grammar: delimiters, field separator and
// identifier case sensitivity. The zero value is not usable; obtain one via
// DefaultConfig or Normalize.
type Config struct {
	Open          string `json:"open"`
	Close         string `json:"close"`
	Separator     string `json:"separator"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// DefaultConfig returns the default grammar ({{ }} with a colon separator,
// case-insensitive identifiers).
func DefaultConfig() Config {
	return Config{
		Open:      constants.DefaultOpenDelim,
		Close:     constants.DefaultCloseDelim,
		Separator: constants.DefaultSeparator,
	}
}

// ErrInvalidConfig reports a grammar whose delimiters are empty or ambiguous.
var ErrInvalidConfig = errors.New("parser: invalid grammar config")

// Validate rejects grammars that cannot tokenize unambiguously: empty
// fields, identical open/close delimiters, or a separator contained in
// either delimiter.
func (c Config) Validate() error {
	if c.Open == "" || c.Close == "" || c.Separator == "" {
		return ErrInvalidConfig
	}
	if c.Open == c.Close {
		return ErrInvalidConfig
	}
	if strings.Contains(c.Open, c.Separator) || strings.Contains(c.Close, c.Separator) {
		return ErrInvalidConfig
	}
	return nil
}

// Parser scans narrative text for command tokens against one grammar.
type Parser struct {
	cfg Config
}

// New returns a parser using the given grammar, falling back to the default
// grammar when the given one fails validation.
func New(cfg Config) *Parser {
	p := &Parser{cfg: DefaultConfig()}
	_ = p.SetConfig(cfg)
	return p
}

// Config returns the active grammar.
func (p *Parser) Config() Config { return p.cfg }

// SetConfig replaces the grammar at runtime. An invalid grammar is rejected
// and the previous one stays active.
func (p *Parser) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg = cfg
	return nil
}

// ParseValid scans text left-to-right and returns every command it could
// validate, in textual order of appearance. Command tokens are
// non-overlapping and non-nested: a close delimiter terminates the nearest
// preceding open, so a stray open before a valid tag never swallows it.
// Malformed tokens (empty identifier, unparsable value, unmatched
// delimiter) are skipped, never fatal. The parser does not check that an
// identifier names an existing stat; that is the consumer's job.
func (p *Parser) ParseValid(text string) []Command {
	var out []Command
	rest := text
	for {
		start := strings.Index(rest, p.cfg.Open)
		if start < 0 {
			return out
		}
		rest = rest[start+len(p.cfg.Open):]
		end := strings.Index(rest, p.cfg.Close)
		if end < 0 {
			// unmatched open delimiter; everything after it is narrative
			return out
		}
		token := rest[:end]
		rest = rest[end+len(p.cfg.Close):]
		if cmd, ok := p.parseToken(token); ok {
			out = append(out, cmd)
		}
	}
}

// parseToken validates one "identifier SEP valueExpr" token body.
func (p *Parser) parseToken(token string) (Command, bool) {
	// The close delimiter pairs with the nearest preceding open, so a stray
	// open inside the body restarts the token after its last occurrence.
	if idx := strings.LastIndex(token, p.cfg.Open); idx >= 0 {
		token = token[idx+len(p.cfg.Open):]
	}
	id, expr, found := strings.Cut(token, p.cfg.Separator)
	if !found {
		return Command{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Command{}, false
	}
	if !p.cfg.CaseSensitive {
		id = strings.ToLower(id)
	}

	kind := KindModify
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, constants.SetMarker) {
		kind = KindSet
		expr = strings.TrimSpace(strings.TrimPrefix(expr, constants.SetMarker))
	}
	value, ok := numutil.ParseFloat(expr)
	if !ok {
		return Command{}, false
	}
	return Command{StatID: id, Kind: kind, Value: value}, true
}
