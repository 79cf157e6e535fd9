package site

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memorySite struct {
	site     Site
	trees    []Tree
	sections []Section
	clicks   []Click
}

// MemoryStore keeps sites in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	sites  map[string]*memorySite
	nextID int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: make(map[string]*memorySite)}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) lookup(siteID string) (*memorySite, error) {
	s, ok := m.sites[siteID]
	if !ok {
		return nil, ErrNoMatchingRecord
	}
	return s, nil
}

// CreateSite stores a new site, assigning its ID and creation time.
func (m *MemoryStore) CreateSite(s *Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	m.sites[s.ID] = &memorySite{site: *s}
	return nil
}

// GetSite returns one site.
func (m *MemoryStore) GetSite(siteID string) (Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return Site{}, err
	}
	return s.site, nil
}

// ListSites lists sites oldest first.
func (m *MemoryStore) ListSites() ([]Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sites := make([]Site, 0, len(m.sites))
	for _, s := range m.sites {
		sites = append(sites, s.site)
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].CreatedAt.Equal(sites[j].CreatedAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].CreatedAt.Before(sites[j].CreatedAt)
	})
	return sites, nil
}

// UpdateParams replaces the global parameters of a site.
func (m *MemoryStore) UpdateParams(siteID string, p Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	s.site.Params = p
	return nil
}

// DeleteSite drops a site with its trees, sections and clicks.
func (m *MemoryStore) DeleteSite(siteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(siteID); err != nil {
		return err
	}
	delete(m.sites, siteID)
	return nil
}

// AddTree plants a tree on a site.
func (m *MemoryStore) AddTree(siteID string, t *Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	for _, existing := range s.trees {
		if existing.X == t.X && existing.Y == t.Y {
			return ErrDuplicateTree
		}
	}
	t.ID = m.id()
	dup := *t
	if t.CurrentHeight != nil {
		h := *t.CurrentHeight
		dup.CurrentHeight = &h
	}
	s.trees = append(s.trees, dup)
	return nil
}

// ListTrees lists the trees of a site in planting order.
func (m *MemoryStore) ListTrees(siteID string) ([]Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return nil, err
	}
	trees := make([]Tree, len(s.trees))
	for i, t := range s.trees {
		trees[i] = t
		if t.CurrentHeight != nil {
			h := *t.CurrentHeight
			trees[i].CurrentHeight = &h
		}
	}
	return trees, nil
}

// RemoveTree removes a tree from a site.
func (m *MemoryStore) RemoveTree(siteID string, treeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	for i, t := range s.trees {
		if t.ID == treeID {
			s.trees = append(s.trees[:i], s.trees[i+1:]...)
			return nil
		}
	}
	return ErrNoMatchingRecord
}

// AddSection draws a section line on a site.
func (m *MemoryStore) AddSection(siteID string, sec *Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	sec.ID = m.id()
	s.sections = append(s.sections, *sec)
	return nil
}

// ListSections lists the sections of a site in drawing order.
func (m *MemoryStore) ListSections(siteID string) ([]Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return nil, err
	}
	sections := make([]Section, len(s.sections))
	copy(sections, s.sections)
	return sections, nil
}

// RemoveSection erases a section line.
func (m *MemoryStore) RemoveSection(siteID string, sectionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	for i, sec := range s.sections {
		if sec.ID == sectionID {
			s.sections = append(s.sections[:i], s.sections[i+1:]...)
			return nil
		}
	}
	return ErrNoMatchingRecord
}

// AddClick records a pending plan point.
func (m *MemoryStore) AddClick(siteID string, c *Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return err
	}
	c.ID = m.id()
	s.clicks = append(s.clicks, *c)
	return nil
}

// ListClicks lists pending clicks oldest first.
func (m *MemoryStore) ListClicks(siteID string) ([]Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return nil, err
	}
	clicks := make([]Click, len(s.clicks))
	copy(clicks, s.clicks)
	return clicks, nil
}

// PairClicks turns the two oldest clicks into a section.
func (m *MemoryStore) PairClicks(siteID string) (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(siteID)
	if err != nil {
		return nil, err
	}
	if len(s.clicks) < 2 {
		return nil, nil
	}
	start, end := s.clicks[0], s.clicks[1]
	s.clicks = append([]Click(nil), s.clicks[2:]...)

	labels := make([]string, len(s.sections))
	for i, existing := range s.sections {
		labels[i] = existing.Label
	}
	sec := Section{
		ID:    m.id(),
		Label: NextSectionLabel(labels),
		Color: DefaultSectionColor,
		Start: start.point(),
		End:   end.point(),
	}
	s.sections = append(s.sections, sec)
	return &sec, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
