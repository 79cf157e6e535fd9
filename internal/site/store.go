package site

import "errors"

var (
	// ErrDuplicateTree reports an attempt to plant a tree at the exact position on a site where one is already growing.
	ErrDuplicateTree = errors.New("tree already growing at given site and position")
	// ErrNoMatchingRecord reports a bad lookup ID.
	ErrNoMatchingRecord = errors.New("no record matching ID")
)

// Store keeps sites and everything placed on them. Implementations must
// reject operations on unknown sites with ErrNoMatchingRecord.
type Store interface {
	CreateSite(s *Site) error
	GetSite(siteID string) (Site, error)
	ListSites() ([]Site, error)
	UpdateParams(siteID string, p Params) error
	DeleteSite(siteID string) error

	AddTree(siteID string, t *Tree) error
	ListTrees(siteID string) ([]Tree, error)
	RemoveTree(siteID string, treeID int64) error

	AddSection(siteID string, s *Section) error
	ListSections(siteID string) ([]Section, error)
	RemoveSection(siteID string, sectionID int64) error

	AddClick(siteID string, c *Click) error
	ListClicks(siteID string) ([]Click, error)
	// PairClicks turns the two oldest clicks into a new section. It returns
	// nil when fewer than two clicks are pending.
	PairClicks(siteID string) (*Section, error)

	Close() error
}
