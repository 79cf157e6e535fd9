package site

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect carries what differs between the SQL backends: table definitions
// and how each driver reports a unique-key violation.
type dialect struct {
	name        string
	schema      []string
	isDuplicate func(error) bool
}

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS site (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			address VARCHAR(255) NULL,
			soil_plasticity VARCHAR(32) NOT NULL,
			ffl DOUBLE NOT NULL,
			min_depth DOUBLE NOT NULL,
			padding DOUBLE NOT NULL,
			resolution INT NOT NULL,
			section_samples INT NOT NULL,
			removal_policy VARCHAR(16) NOT NULL,
			shallow_depth DOUBLE NOT NULL,
			created_at DATETIME(6) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tree (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			site_id VARCHAR(36) NOT NULL,
			species VARCHAR(255) NOT NULL,
			x_coord DOUBLE NOT NULL,
			y_coord DOUBLE NOT NULL,
			base_elevation DOUBLE NOT NULL,
			removed TINYINT(1) NOT NULL DEFAULT 0,
			current_height DOUBLE NULL,
			UNIQUE KEY tree_site_position (site_id, x_coord, y_coord)
		);`,
		`CREATE TABLE IF NOT EXISTS section_line (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			site_id VARCHAR(36) NOT NULL,
			label VARCHAR(64) NOT NULL,
			color VARCHAR(16) NOT NULL,
			start_x DOUBLE NOT NULL,
			start_y DOUBLE NOT NULL,
			end_x DOUBLE NOT NULL,
			end_y DOUBLE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS click_point (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			site_id VARCHAR(36) NOT NULL,
			x_coord DOUBLE NOT NULL,
			y_coord DOUBLE NOT NULL
		);`,
	},
	isDuplicate: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
	},
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS site (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			soil_plasticity TEXT NOT NULL,
			ffl REAL NOT NULL,
			min_depth REAL NOT NULL,
			padding REAL NOT NULL,
			resolution INTEGER NOT NULL,
			section_samples INTEGER NOT NULL,
			removal_policy TEXT NOT NULL,
			shallow_depth REAL NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tree (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id TEXT NOT NULL,
			species TEXT NOT NULL,
			x_coord REAL NOT NULL,
			y_coord REAL NOT NULL,
			base_elevation REAL NOT NULL,
			removed INTEGER NOT NULL DEFAULT 0,
			current_height REAL,
			UNIQUE (site_id, x_coord, y_coord)
		);`,
		`CREATE TABLE IF NOT EXISTS section_line (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id TEXT NOT NULL,
			label TEXT NOT NULL,
			color TEXT NOT NULL,
			start_x REAL NOT NULL,
			start_y REAL NOT NULL,
			end_x REAL NOT NULL,
			end_y REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS click_point (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id TEXT NOT NULL,
			x_coord REAL NOT NULL,
			y_coord REAL NOT NULL
		);`,
	},
	isDuplicate: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		// the bare constraint code shows up when extended codes are off
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
		return false
	},
}

func (d dialect) migrate(db *sql.DB) error {
	for _, ddl := range d.schema {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
