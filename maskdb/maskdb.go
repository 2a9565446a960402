// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package maskdb stores named trigger mask configurations for the
// camera backplane in the telescope configuration database.
//
// A mask row holds one 16-bit enable word for one module slot; a
// named mask is complete when all 32 slots are present.
package maskdb // import "github.com/jmsantander/SCTSC/maskdb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jmsantander/SCTSC/bp"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to retrieve and store trigger mask
// configurations from the telescope database.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the telescope database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("maskdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("maskdb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("maskdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// LoadMask retrieves the named trigger mask. An incomplete mask (any
// of the 32 slots missing) is an error.
func (db *DB) LoadMask(ctx context.Context, name string) (bp.TriggerMask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		mask bp.TriggerMask
		seen [32]bool
	)

	rows, err := db.db.QueryContext(
		ctx,
		"SELECT slot, word FROM masks WHERE name=? ORDER BY slot",
		name,
	)
	if err != nil {
		return mask, fmt.Errorf("maskdb: could not query mask %q: %w", name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			slot int
			word uint16
		)
		err = rows.Scan(&slot, &word)
		if err != nil {
			return mask, fmt.Errorf("maskdb: could not scan row %d of mask %q: %w", n, name, err)
		}
		if slot < 0 || slot > 31 {
			return mask, fmt.Errorf("maskdb: invalid slot %d in mask %q", slot, name)
		}
		mask[slot] = word
		seen[slot] = true
		n++
	}

	if err := rows.Err(); err != nil {
		return mask, fmt.Errorf("maskdb: could not scan db for mask %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return mask, fmt.Errorf("maskdb: context error while retrieving mask %q: %w", name, err)
	}

	for slot, ok := range seen {
		if !ok {
			return mask, fmt.Errorf("maskdb: mask %q misses slot %d", name, slot)
		}
	}

	return mask, nil
}

// StoreMask stores the trigger mask under the given name, replacing
// any previous mask of that name.
func (db *DB) StoreMask(ctx context.Context, name string, mask bp.TriggerMask) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, "DELETE FROM masks WHERE name=?", name)
	if err != nil {
		return fmt.Errorf("maskdb: could not delete old mask %q: %w", name, err)
	}

	for slot, word := range mask {
		_, err = db.db.ExecContext(
			ctx,
			"INSERT INTO masks (name, slot, word) VALUES (?, ?, ?)",
			name, slot, word,
		)
		if err != nil {
			return fmt.Errorf("maskdb: could not store slot %d of mask %q: %w", slot, name, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("maskdb: context error while storing mask %q: %w", name, err)
	}

	return nil
}

// Names lists the stored mask names.
func (db *DB) Names(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var names []string
	rows, err := db.db.QueryContext(ctx, "SELECT DISTINCT name FROM masks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("maskdb: could not query mask names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return names, fmt.Errorf("maskdb: could not scan mask name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return names, fmt.Errorf("maskdb: could not scan db for mask names: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return names, fmt.Errorf("maskdb: context error while retrieving mask names: %w", err)
	}

	return names, nil
}
