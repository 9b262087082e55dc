package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ppiankov/watchdog/internal/model"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a domain entry omits a key
const (
	DefaultWarn  = 50
	DefaultBlock = 80
)

// ErrNoThresholds is returned when no usable threshold table is loaded
var ErrNoThresholds = errors.New("no policy thresholds loaded")

//go:embed default_policies.yaml
var defaultPolicies []byte

// DefaultPolicies returns the built-in threshold file contents
func DefaultPolicies() []byte {
	return append([]byte(nil), defaultPolicies...)
}

// Threshold is the warn/block pair for one domain
type Threshold struct {
	Warn  int `json:"warn" yaml:"warn"`
	Block int `json:"block" yaml:"block"`
}

// Table maps domains to thresholds
type Table map[model.Domain]Threshold

type rawThreshold struct {
	Warn  *int `yaml:"warn"`
	Block *int `yaml:"block"`
}

// ParseTable parses a YAML or JSON threshold file
func ParseTable(data []byte) (Table, error) {
	var raw map[string]rawThreshold
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal thresholds: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("threshold table is empty")
	}

	table := make(Table, len(raw))
	for name, r := range raw {
		t := Threshold{Warn: DefaultWarn, Block: DefaultBlock}
		if r.Warn != nil {
			t.Warn = *r.Warn
		}
		if r.Block != nil {
			t.Block = *r.Block
		}
		if t.Warn < 0 || t.Block > 100 || t.Warn > t.Block {
			return nil, fmt.Errorf("domain %q: invalid thresholds warn=%d block=%d", name, t.Warn, t.Block)
		}
		table[model.Domain(name)] = t
	}
	return table, nil
}

// Store holds the active threshold table and swaps it atomically on reload
type Store struct {
	mu    sync.RWMutex
	path  string
	table Table
	err   error
}

// NewStore loads thresholds from path, or the built-in table when path is empty.
// A load failure is kept and reported by Lookup until a reload succeeds.
func NewStore(path string) *Store {
	s := &Store{path: path}
	_ = s.Reload()
	return s
}

// NewStaticStore serves a fixed table
func NewStaticStore(table Table) *Store {
	return &Store{table: table}
}

// Path returns the file backing the store (empty for built-in or static tables)
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the threshold file. On failure the previous table stays active.
func (s *Store) Reload() error {
	data := defaultPolicies
	if s.path != "" {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil {
			return s.fail(fmt.Errorf("read thresholds: %w", err))
		}
	}

	table, err := ParseTable(data)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.table = table
	s.err = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		s.err = err
	}
	return err
}

// Lookup returns the thresholds for a domain, falling back to general and then
// to DefaultWarn/DefaultBlock. It fails only when no table has ever loaded.
func (s *Store) Lookup(domain model.Domain) (Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		if s.err != nil {
			return Threshold{}, fmt.Errorf("%w: %v", ErrNoThresholds, s.err)
		}
		return Threshold{}, ErrNoThresholds
	}
	if t, ok := s.table[domain]; ok {
		return t, nil
	}
	if t, ok := s.table[model.DomainGeneral]; ok {
		return t, nil
	}
	return Threshold{Warn: DefaultWarn, Block: DefaultBlock}, nil
}

// Snapshot returns a copy of the active table
func (s *Store) Snapshot() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Table, len(s.table))
	for k, v := range s.table {
		out[k] = v
	}
	return out
}
