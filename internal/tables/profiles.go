package tables

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

// Profiles maps each statement type to its keyword set. Keywords are stored
// lower-cased and de-duplicated in first-seen order. Safe for concurrent use.
type Profiles struct {
	mu       sync.RWMutex
	keywords map[constants.StatementType][]string
}

// NewProfiles builds a registry from m.
func NewProfiles(m map[constants.StatementType][]string) *Profiles {
	p := &Profiles{keywords: make(map[constants.StatementType][]string, len(m))}
	for st, kws := range m {
		p.Register(st, kws)
	}
	return p
}

// DefaultProfiles returns the built-in SOFP, SOPL and SOCF profiles.
func DefaultProfiles() *Profiles {
	return NewProfiles(constants.DefaultKeywords)
}

// Register adds or replaces the keyword set for st.
func (p *Profiles) Register(st constants.StatementType, keywords []string) {
	norm := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(CollapseSpace(kw))
		if kw == "" || slices.Contains(norm, kw) {
			continue
		}
		norm = append(norm, kw)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keywords[st] = norm
}

// Keywords returns the keyword set for st.
func (p *Profiles) Keywords(st constants.StatementType) ([]string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	kws, ok := p.keywords[st]
	if !ok || len(kws) == 0 {
		return nil, false
	}
	return slices.Clone(kws), true
}

// Types lists the registered statement types in sorted order.
func (p *Profiles) Types() []constants.StatementType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.keywords))
}
