package site

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SQLStore manages sites, trees and sections in a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	stmts   map[string]*sql.Stmt
	log     *zap.Logger
}

const (
	queryAddSite                = "add-site"
	queryGetSiteByID            = "get-site-by-id"
	queryGetAllSites            = "get-all-sites"
	queryGetSiteExistsBySiteID  = "get-site-exists-by-site-id"
	queryUpdateParamsBySiteID   = "update-params-by-site-id"
	queryDeleteSiteBySiteID     = "delete-site-by-site-id"
	queryAddTreeBySiteID        = "add-tree-by-site-id"
	queryGetTreesBySiteID       = "get-trees-by-site-id"
	queryRemoveTreeByTreeID     = "remove-tree-by-tree-id"
	queryDeleteTreesBySiteID    = "delete-trees-by-site-id"
	queryAddSectionBySiteID     = "add-section-by-site-id"
	queryGetSectionsBySiteID    = "get-sections-by-site-id"
	queryGetSectionLabels       = "get-section-labels-by-site-id"
	queryRemoveSectionBySection = "remove-section-by-section-id"
	queryDeleteSectionsBySiteID = "delete-sections-by-site-id"
	queryAddClickBySiteID       = "add-click-by-site-id"
	queryGetClicksBySiteID      = "get-clicks-by-site-id"
	queryGetOldestClicks        = "get-oldest-clicks-by-site-id"
	queryRemoveClickByClickID   = "remove-click-by-click-id"
	queryDeleteClicksBySiteID   = "delete-clicks-by-site-id"
)

const siteColumns = `
	id,
	name,
	address,
	soil_plasticity,
	ffl,
	min_depth,
	padding,
	resolution,
	section_samples,
	removal_policy,
	shallow_depth,
	created_at`

var unprepared = map[string]string{
	queryAddSite: `
		INSERT INTO site (` + siteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
	queryGetSiteByID: `
		SELECT ` + siteColumns + `
		FROM site
		WHERE id = ?;
	`,
	queryGetAllSites: `
		SELECT ` + siteColumns + `
		FROM site
		ORDER BY created_at ASC, id ASC;
	`,
	queryGetSiteExistsBySiteID: `
		SELECT EXISTS (
			SELECT *
			FROM site
			WHERE id = ?
		);
	`,
	queryUpdateParamsBySiteID: `
		UPDATE site
		SET
			soil_plasticity = ?,
			ffl = ?,
			min_depth = ?,
			padding = ?,
			resolution = ?,
			section_samples = ?,
			removal_policy = ?,
			shallow_depth = ?
		WHERE id = ?;
	`,
	queryDeleteSiteBySiteID: `
		DELETE FROM site
		WHERE id = ?;
	`,
	queryAddTreeBySiteID: `
		INSERT INTO tree (site_id, species, x_coord, y_coord, base_elevation, removed, current_height)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`,
	queryGetTreesBySiteID: `
		SELECT
			id,
			species,
			x_coord,
			y_coord,
			base_elevation,
			removed,
			current_height
		FROM tree
		WHERE site_id = ?
		ORDER BY id ASC;
	`,
	queryRemoveTreeByTreeID: `
		DELETE FROM tree
		WHERE site_id = ? AND id = ?;
	`,
	queryDeleteTreesBySiteID: `
		DELETE FROM tree
		WHERE site_id = ?;
	`,
	queryAddSectionBySiteID: `
		INSERT INTO section_line (site_id, label, color, start_x, start_y, end_x, end_y)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`,
	queryGetSectionsBySiteID: `
		SELECT
			id,
			label,
			color,
			start_x,
			start_y,
			end_x,
			end_y
		FROM section_line
		WHERE site_id = ?
		ORDER BY id ASC;
	`,
	queryGetSectionLabels: `
		SELECT label
		FROM section_line
		WHERE site_id = ?;
	`,
	queryRemoveSectionBySection: `
		DELETE FROM section_line
		WHERE site_id = ? AND id = ?;
	`,
	queryDeleteSectionsBySiteID: `
		DELETE FROM section_line
		WHERE site_id = ?;
	`,
	queryAddClickBySiteID: `
		INSERT INTO click_point (site_id, x_coord, y_coord)
		VALUES (?, ?, ?);
	`,
	queryGetClicksBySiteID: `
		SELECT
			id,
			x_coord,
			y_coord
		FROM click_point
		WHERE site_id = ?
		ORDER BY id ASC;
	`,
	queryGetOldestClicks: `
		SELECT
			id,
			x_coord,
			y_coord
		FROM click_point
		WHERE site_id = ?
		ORDER BY id ASC
		LIMIT 2;
	`,
	queryRemoveClickByClickID: `
		DELETE FROM click_point
		WHERE id = ?;
	`,
	queryDeleteClicksBySiteID: `
		DELETE FROM click_point
		WHERE site_id = ?;
	`,
}

// NewMySQLStore returns a store backed by MySQL, creating tables as needed.
func NewMySQLStore(db *sql.DB, log *zap.Logger) (*SQLStore, error) {
	return newSQLStore(db, mysqlDialect, log)
}

// NewSQLiteStore returns a store backed by SQLite, creating tables as needed.
// SQLite allows one writer, so the pool is limited to a single connection.
func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLStore, error) {
	db.SetMaxOpenConns(1)
	return newSQLStore(db, sqliteDialect, log)
}

func newSQLStore(db *sql.DB, d dialect, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := d.migrate(db); err != nil {
		return nil, fmt.Errorf("error creating %s schema: %w", d.name, err)
	}

	stmts := make(map[string]*sql.Stmt)
	for key, query := range unprepared {
		stmt, err := db.Prepare(query)
		if err != nil {
			for _, prepared := range stmts {
				prepared.Close()
			}
			return nil, fmt.Errorf("error preparing statement %s: %w", key, err)
		}
		stmts[key] = stmt
	}

	return &SQLStore{
		db:      db,
		dialect: d,
		stmts:   stmts,
		log:     log,
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSite(row scanner) (Site, error) {
	var s Site
	var address sql.NullString
	err := row.Scan(
		&s.ID,
		&s.Name,
		&address,
		&s.Params.SoilPlasticity,
		&s.Params.FFL,
		&s.Params.MinDepth,
		&s.Params.Padding,
		&s.Params.Resolution,
		&s.Params.SectionSamples,
		&s.Params.RemovalPolicy,
		&s.Params.ShallowDepth,
		&s.CreatedAt,
	)
	if err != nil {
		return Site{}, err
	}
	s.Address = emptyIfNull(address)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// CreateSite stores a new site, assigning its ID and creation time.
func (store *SQLStore) CreateSite(s *Site) error {
	id := uuid.NewString()
	createdAt := time.Now().UTC()
	p := s.Params

	_, err := store.stmts[queryAddSite].Exec(
		id, s.Name, nullIfEmpty(s.Address),
		p.SoilPlasticity, p.FFL, p.MinDepth, p.Padding, p.Resolution,
		p.SectionSamples, p.RemovalPolicy, p.ShallowDepth, createdAt,
	)
	if err != nil {
		return fmt.Errorf("INSERT Site failed: %w", err)
	}

	s.ID = id
	s.CreatedAt = createdAt
	return nil
}

// GetSite returns one site.
func (store *SQLStore) GetSite(siteID string) (Site, error) {
	s, err := scanSite(store.stmts[queryGetSiteByID].QueryRow(siteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Site{}, ErrNoMatchingRecord
		}
		return Site{}, fmt.Errorf("failed to parse row as Site: %w", err)
	}
	return s, nil
}

// ListSites lists sites oldest first.
func (store *SQLStore) ListSites() ([]Site, error) {
	rows, err := store.stmts[queryGetAllSites].Query()
	if err != nil {
		return nil, fmt.Errorf("SELECT Sites failed: %w", err)
	}

	defer rows.Close()

	var sites []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse row as Site: %w", err)
		}
		sites = append(sites, s)
	}

	return sites, rows.Err()
}

// GetSiteExistsBySiteID reports whether a given site ID matches a record in the DB.
func (store *SQLStore) GetSiteExistsBySiteID(siteID string) (bool, error) {
	row := store.stmts[queryGetSiteExistsBySiteID].QueryRow(siteID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("error reading row as whether Site exists: %w", err)
	}

	return exists, nil
}

func (store *SQLStore) requireSite(siteID string) error {
	exists, err := store.GetSiteExistsBySiteID(siteID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoMatchingRecord
	}
	return nil
}

// UpdateParams replaces the global parameters of a site.
func (store *SQLStore) UpdateParams(siteID string, p Params) error {
	result, err := store.stmts[queryUpdateParamsBySiteID].Exec(
		p.SoilPlasticity, p.FFL, p.MinDepth, p.Padding, p.Resolution,
		p.SectionSamples, p.RemovalPolicy, p.ShallowDepth, siteID,
	)
	if err != nil {
		return fmt.Errorf("UPDATE Site params failed: %w", err)
	}
	return store.expectAffected(result, siteID)
}

// expectAffected maps a zero-row update to ErrNoMatchingRecord. MySQL reports
// zero affected rows for an update that changes nothing, so the site is
// looked up before giving up.
func (store *SQLStore) expectAffected(result sql.Result, siteID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	return store.requireSite(siteID)
}

// DeleteSite drops a site with its trees, sections and clicks in one transaction.
func (store *SQLStore) DeleteSite(siteID string) error {
	tx, err := store.db.Begin()
	if err != nil {
		return fmt.Errorf("error initiating DB transaction: %w", err)
	}

	for _, key := range []string{queryDeleteTreesBySiteID, queryDeleteSectionsBySiteID, queryDeleteClicksBySiteID} {
		if _, err := tx.Stmt(store.stmts[key]).Exec(siteID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run %s: %w", key, err)
		}
	}

	result, err := tx.Stmt(store.stmts[queryDeleteSiteBySiteID]).Exec(siteID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error running DELETE Site: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if rowsAffected == 0 {
		tx.Rollback()
		return ErrNoMatchingRecord
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit DB transaction: %w", err)
	}

	store.log.Info("site deleted", zap.String("site", siteID))
	return nil
}

// AddTree plants a new tree on a site.
func (store *SQLStore) AddTree(siteID string, t *Tree) error {
	if err := store.requireSite(siteID); err != nil {
		return err
	}

	var currentHeight sql.NullFloat64
	if t.CurrentHeight != nil {
		currentHeight = sql.NullFloat64{Float64: *t.CurrentHeight, Valid: true}
	}

	result, err := store.stmts[queryAddTreeBySiteID].Exec(siteID, t.Species, t.X, t.Y, t.Z, t.Remove, currentHeight)
	if err != nil {
		if store.dialect.isDuplicate(err) {
			return ErrDuplicateTree
		}
		return fmt.Errorf("INSERT Tree failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading last INSERT id: %w", err)
	}

	t.ID = id
	return nil
}

// ListTrees lists trees for a given site ID.
func (store *SQLStore) ListTrees(siteID string) ([]Tree, error) {
	if err := store.requireSite(siteID); err != nil {
		return nil, err
	}

	rows, err := store.stmts[queryGetTreesBySiteID].Query(siteID)
	if err != nil {
		return nil, fmt.Errorf("SELECT Trees failed: %w", err)
	}

	defer rows.Close()

	trees := []Tree{}
	for rows.Next() {
		var tree Tree
		var currentHeight sql.NullFloat64
		err := rows.Scan(
			&tree.ID,
			&tree.Species,
			&tree.X,
			&tree.Y,
			&tree.Z,
			&tree.Remove,
			&currentHeight,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse row as Tree: %w", err)
		}
		if currentHeight.Valid {
			h := currentHeight.Float64
			tree.CurrentHeight = &h
		}
		trees = append(trees, tree)
	}

	return trees, rows.Err()
}

// RemoveTree removes a tree from a site.
func (store *SQLStore) RemoveTree(siteID string, treeID int64) error {
	result, err := store.stmts[queryRemoveTreeByTreeID].Exec(siteID, treeID)
	if err != nil {
		return fmt.Errorf("error running DELETE Tree: %w", err)
	}
	return noRowsAsMissing(result)
}

// AddSection draws a section line on a site.
func (store *SQLStore) AddSection(siteID string, s *Section) error {
	if err := store.requireSite(siteID); err != nil {
		return err
	}
	id, err := insertSection(store.stmts[queryAddSectionBySiteID], siteID, s)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func insertSection(stmt *sql.Stmt, siteID string, s *Section) (int64, error) {
	result, err := stmt.Exec(siteID, s.Label, s.Color, s.Start.X, s.Start.Y, s.End.X, s.End.Y)
	if err != nil {
		return 0, fmt.Errorf("INSERT Section failed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading last INSERT id: %w", err)
	}
	return id, nil
}

// ListSections lists the sections of a site in drawing order.
func (store *SQLStore) ListSections(siteID string) ([]Section, error) {
	if err := store.requireSite(siteID); err != nil {
		return nil, err
	}

	rows, err := store.stmts[queryGetSectionsBySiteID].Query(siteID)
	if err != nil {
		return nil, fmt.Errorf("SELECT Sections failed: %w", err)
	}

	defer rows.Close()

	sections := []Section{}
	for rows.Next() {
		var s Section
		err := rows.Scan(&s.ID, &s.Label, &s.Color, &s.Start.X, &s.Start.Y, &s.End.X, &s.End.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to parse row as Section: %w", err)
		}
		sections = append(sections, s)
	}

	return sections, rows.Err()
}

// RemoveSection erases a section line.
func (store *SQLStore) RemoveSection(siteID string, sectionID int64) error {
	result, err := store.stmts[queryRemoveSectionBySection].Exec(siteID, sectionID)
	if err != nil {
		return fmt.Errorf("error running DELETE Section: %w", err)
	}
	return noRowsAsMissing(result)
}

// AddClick records a pending plan point.
func (store *SQLStore) AddClick(siteID string, c *Click) error {
	if err := store.requireSite(siteID); err != nil {
		return err
	}

	result, err := store.stmts[queryAddClickBySiteID].Exec(siteID, c.X, c.Y)
	if err != nil {
		return fmt.Errorf("INSERT Click failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading last INSERT id: %w", err)
	}

	c.ID = id
	return nil
}

// ListClicks lists pending clicks oldest first.
func (store *SQLStore) ListClicks(siteID string) ([]Click, error) {
	if err := store.requireSite(siteID); err != nil {
		return nil, err
	}
	return queryClicks(store.stmts[queryGetClicksBySiteID], siteID)
}

func queryClicks(stmt *sql.Stmt, siteID string) ([]Click, error) {
	rows, err := stmt.Query(siteID)
	if err != nil {
		return nil, fmt.Errorf("SELECT Clicks failed: %w", err)
	}

	defer rows.Close()

	clicks := []Click{}
	for rows.Next() {
		var c Click
		if err := rows.Scan(&c.ID, &c.X, &c.Y); err != nil {
			return nil, fmt.Errorf("failed to parse row as Click: %w", err)
		}
		clicks = append(clicks, c)
	}

	return clicks, rows.Err()
}

func queryLabels(stmt *sql.Stmt, siteID string) ([]string, error) {
	rows, err := stmt.Query(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query Section labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to parse row as Section label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// PairClicks turns the two oldest clicks into a section in one transaction.
func (store *SQLStore) PairClicks(siteID string) (*Section, error) {
	if err := store.requireSite(siteID); err != nil {
		return nil, err
	}

	tx, err := store.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error initiating DB transaction: %w", err)
	}

	clicks, err := queryClicks(tx.Stmt(store.stmts[queryGetOldestClicks]), siteID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if len(clicks) < 2 {
		tx.Rollback()
		return nil, nil
	}

	labels, err := queryLabels(tx.Stmt(store.stmts[queryGetSectionLabels]), siteID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, c := range clicks {
		if _, err := tx.Stmt(store.stmts[queryRemoveClickByClickID]).Exec(c.ID); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to DELETE Click: %w", err)
		}
	}

	section := Section{
		Label: NextSectionLabel(labels),
		Color: DefaultSectionColor,
		Start: clicks[0].point(),
		End:   clicks[1].point(),
	}
	id, err := insertSection(tx.Stmt(store.stmts[queryAddSectionBySiteID]), siteID, &section)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	section.ID = id

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to commit DB transaction: %w", err)
	}

	store.log.Debug("clicks paired into section", zap.String("site", siteID), zap.String("label", section.Label))
	return &section, nil
}

// Close cleans up prepared statements. The caller owns the DB handle.
func (store *SQLStore) Close() error {
	store.log.Info("store: closing prepared statements")
	for key, stmt := range store.stmts {
		if err := stmt.Close(); err != nil {
			store.log.Warn("store: failed to close stmt", zap.String("stmt", key), zap.Error(err))
		}
	}
	return nil
}

func noRowsAsMissing(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNoMatchingRecord
	}
	return nil
}

func emptyIfNull(nullString sql.NullString) string {
	if nullString.Valid {
		return nullString.String
	}
	return ""
}

func nullIfEmpty(s string) sql.NullString {
	valid := s != ""
	return sql.NullString{
		String: s,
		Valid:  valid,
	}
}
