// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fitdb archives model selections in a SQL database.
//
// Each invocation of an analysis creates a Run. A Run holds one Fits
// row per candidate model of each analyzed group, with the fitted
// parameters in FitParams.
package fitdb

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/rnaperf/rnaperf/complexity"
)

// DB is a fit archive. It's safe for concurrent use by multiple
// goroutines.
type DB struct {
	sql *sql.DB
	// prepared statements
	insertRun   *sql.Stmt
	insertFit   *sql.Stmt
	insertParam *sql.Stmt
}

// OpenSQL opens an archive backed by a SQL database, creating any
// missing tables. The parameters are the same as the parameters for
// sql.Open. Only mysql and sqlite3 are explicitly supported; other
// database engines will receive MySQL syntax.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = map[string]func(*sql.DB) error{
	// Every connection to an in-memory SQLite database is a new
	// database, and SQLite serializes writers anyway.
	"sqlite3": func(db *sql.DB) error {
		db.SetMaxOpenConns(1)
		_, err := db.Exec("PRAGMA foreign_keys = ON")
		return err
	},
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Label VARCHAR(255) NOT NULL,
	Created VARCHAR(64) NOT NULL
);
CREATE TABLE IF NOT EXISTS Fits (
	RunID BIGINT UNSIGNED,
	FitID BIGINT UNSIGNED,
	GroupKey VARCHAR(255) NOT NULL,
	Expr VARCHAR(255) NOT NULL,
	Formula VARCHAR(1024),
	Best {{if .sqlite3}}INTEGER{{else}}BOOL{{end}} NOT NULL,
	Criterion VARCHAR(16),
	NData INTEGER,
	NVarys INTEGER,
	ChiSqr DOUBLE,
	AIC DOUBLE,
	BIC DOUBLE,
	RSquared DOUBLE,
	Status VARCHAR(255),
	Error {{if .sqlite3}}TEXT{{else}}VARCHAR(8192){{end}},
	PRIMARY KEY (RunID, FitID),
{{if not .sqlite3}}
	Index (GroupKey(100)),
{{end}}
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS FitParams (
	RunID BIGINT UNSIGNED,
	FitID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value DOUBLE,
	StdErr DOUBLE,
	PRIMARY KEY (RunID, FitID, Name),
	FOREIGN KEY (RunID, FitID) REFERENCES Fits(RunID, FitID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS FitsGroupKey ON Fits(GroupKey);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Label, Created) VALUES (?, ?)")
	if err != nil {
		return err
	}
	db.insertFit, err = db.sql.Prepare(`INSERT INTO Fits(RunID, FitID, GroupKey, Expr, Formula, Best, Criterion,
		NData, NVarys, ChiSqr, AIC, BIC, RSquared, Status, Error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	db.insertParam, err = db.sql.Prepare("INSERT INTO FitParams(RunID, FitID, Name, Value, StdErr) VALUES (?, ?, ?, ?, ?)")
	return err
}

// now is a hook for testing
var now = time.Now

// A Run is one analysis session. All selections inserted through the
// Run share its ID.
type Run struct {
	ID    int64
	Label string
	// Created is the creation time, in UTC.
	Created time.Time

	// fitid is the ID of the next fit to insert.
	fitid int64
	db    *DB
}

// NewRun starts a new run with the given label.
func (db *DB) NewRun(ctx context.Context, label string) (*Run, error) {
	created := now().UTC().Truncate(time.Second)
	res, err := db.insertRun.ExecContext(ctx, label, created.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Run{ID: id, Label: label, Created: created, db: db}, nil
}

// InsertSelection records every candidate of sel under group, marking
// the selected model. Failed candidates are recorded with their error
// and no statistics. The whole selection is inserted in one
// transaction.
func (r *Run) InsertSelection(ctx context.Context, group string, sel *complexity.Selection) (err error) {
	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	insertFit := tx.StmtContext(ctx, r.db.insertFit)
	insertParam := tx.StmtContext(ctx, r.db.insertParam)
	id := r.fitid
	crit := sel.Criterion.String()
	for _, res := range sel.Ranked() {
		if _, err := insertFit.ExecContext(ctx, r.ID, id, group, res.Name, res.Model.Formula(), res == sel.Best, crit,
			res.NData, res.NVarys, nullFloat(res.ChiSqr), nullFloat(res.AIC), nullFloat(res.BIC), nullFloat(res.RSquared),
			res.Status.String(), nil); err != nil {
			return err
		}
		for _, p := range res.Params {
			if _, err := insertParam.ExecContext(ctx, r.ID, id, p.Name, nullFloat(p.Value), nullFloat(p.StdErr)); err != nil {
				return err
			}
		}
		id++
	}
	for _, expr := range sortedKeys(sel.Failed) {
		if _, err := insertFit.ExecContext(ctx, r.ID, id, group, expr, nil, false, crit,
			sel.NData, nil, nil, nil, nil, nil, nil, sel.Failed[expr].Error()); err != nil {
			return err
		}
		id++
	}
	r.fitid = id
	return nil
}

// nullFloat maps non-finite values to NULL, which SQL cannot
// otherwise represent.
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertRun, db.insertFit, db.insertParam} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
