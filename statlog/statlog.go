// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package statlog keeps the temperature extrema of streamed frames in a
// SQLite database.
package statlog

import (
	"database/sql"
	"errors"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/go-thermalexpert/te"
	"periph.io/x/periph/conn/physic"

	_ "modernc.org/sqlite"
)

// Sample is one logged frame.
type Sample struct {
	Session  string
	Seq      uint64
	Captured time.Time
	te.TempStats
}

// DB is the log.
type DB struct {
	db *sql.DB
}

// Open opens or creates the log at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	d := &DB{db: db}
	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert logs the extrema of f. The frame must have been acquired with
// te.Opts.Radiometry.
func (d *DB) Insert(session string, f *te.Frame) error {
	t := f.Metadata.Temp
	if t == nil {
		return errors.New("statlog: frame without temperature")
	}
	_, err := d.db.Exec(`
		INSERT INTO samples
		(session, seq, captured_at, min_nk, max_nk, min_x, min_y, max_x, max_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session,
		int64(f.Metadata.Seq),
		f.Metadata.Captured.UnixNano(),
		int64(t.Min),
		int64(t.Max),
		t.MinLoc.X, t.MinLoc.Y,
		t.MaxLoc.X, t.MaxLoc.Y,
	)
	return err
}

// Recent returns up to n samples, newest first.
func (d *DB) Recent(n int) ([]Sample, error) {
	rows, err := d.db.Query(`
		SELECT session, seq, captured_at, min_nk, max_nk, min_x, min_y, max_x, max_y
		FROM samples
		ORDER BY id DESC
		LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sample
	for rows.Next() {
		var s Sample
		var seq, captured, lo, hi int64
		var minX, minY, maxX, maxY int
		if err := rows.Scan(&s.Session, &seq, &captured, &lo, &hi, &minX, &minY, &maxX, &maxY); err != nil {
			return nil, err
		}
		s.Seq = uint64(seq)
		s.Captured = time.Unix(0, captured)
		s.Min = physic.Temperature(lo)
		s.Max = physic.Temperature(hi)
		s.MinLoc = image.Pt(minX, minY)
		s.MaxLoc = image.Pt(maxX, maxY)
		out = append(out, s)
	}
	return out, rows.Err()
}

//

func (d *DB) initSchema() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			captured_at INTEGER NOT NULL,
			min_nk INTEGER NOT NULL,
			max_nk INTEGER NOT NULL,
			min_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			max_x INTEGER NOT NULL,
			max_y INTEGER NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`CREATE INDEX IF NOT EXISTS samples_session ON samples(session)`)
	return err
}
