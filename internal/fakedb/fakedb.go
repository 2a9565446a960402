// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
package fakedb // import "github.com/jmsantander/SCTSC/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu    sync.Mutex
	rows  Rows
	execs []Exec
}

// Exec records one statement executed against the fake DB.
type Exec struct {
	Query string
	Args  []driver.Value
}

// Run makes the fake DB serve rows for every query issued by f, and
// returns the statements f executed.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) ([]Exec, error) {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows
	query.execs = nil

	err := f(ctx)
	return query.execs, err
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(stmt string) (driver.Stmt, error) {
	return &Stmt{query: stmt}, nil
}

func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type Stmt struct {
	query string
}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: the fake driver does not sanity check
// argument counts.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec records the statement and reports one affected row.
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	query.execs = append(query.execs, Exec{
		Query: stmt.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return driver.RowsAffected(1), nil
}

// Query serves the rows loaded by Run.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	rows := query.rows
	return &rows, nil
}

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next populates the next row of data, or returns io.EOF when there
// are no more rows.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
