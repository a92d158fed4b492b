package config

import "sync"

// Store owns the live configuration. Edge records keep a stable address for
// as long as their edge stays configured, so holders of a *EdgeConfig see
// later edits without being handed a new pointer.
type Store struct {
	mu      sync.RWMutex
	cfg     *Config
	records map[Edge]*EdgeConfig
	order   []Edge
}

// Change summarizes what a Replace call did to the edge records.
type Change struct {
	Added   []Edge
	Removed []Edge
	Updated []Edge
}

func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Updated) == 0
}

func NewStore(cfg *Config) *Store {
	s := &Store{records: make(map[Edge]*EdgeConfig)}
	s.Replace(cfg)
	return s
}

// Config returns the current global configuration. Edge records should be
// read through Edges instead.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Edges returns the live records in configuration order.
func (s *Store) Edges() []*EdgeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*EdgeConfig, 0, len(s.order))
	for _, edge := range s.order {
		out = append(out, s.records[edge])
	}
	return out
}

// Record returns the live record for edge.
func (s *Store) Record(edge Edge) (*EdgeConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[edge]
	return rec, ok
}

// Replace installs cfg, editing existing records in place. Later duplicates
// of an edge are ignored; Validate rejects them before they get here.
func (s *Store) Replace(cfg *Config) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	var change Change
	next := make(map[Edge]*EdgeConfig, len(cfg.Edges))
	order := make([]Edge, 0, len(cfg.Edges))

	for _, e := range cfg.Edges {
		if _, dup := next[e.Edge]; dup {
			continue
		}
		if rec, ok := s.records[e.Edge]; ok {
			if *rec != e {
				*rec = e
				change.Updated = append(change.Updated, e.Edge)
			}
			next[e.Edge] = rec
		} else {
			rec := e
			next[e.Edge] = &rec
			change.Added = append(change.Added, e.Edge)
		}
		order = append(order, e.Edge)
	}

	for _, edge := range s.order {
		if _, ok := next[edge]; !ok {
			change.Removed = append(change.Removed, edge)
		}
	}

	s.cfg = cfg
	s.records = next
	s.order = order
	return change
}
