/*
Copyright © 2019 the adm1char authors.
This file is part of adm1char.

adm1char is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

adm1char is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with adm1char.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package archive keeps a record of conversion runs in a SQLite database.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/adm1char"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ErrNotFound is returned by Load when no record has the requested ID.
var ErrNotFound = errors.New("archive: record not found")

// Record is one archived conversion.
type Record struct {
	ID      int64
	Created time.Time

	// Name identifies the sample, e.g. the row name in a batch table.
	Name string

	// Charge is the name of the charge balance policy that was used.
	Charge string

	Input      adm1char.Measurement
	Parameters adm1char.Parameters
	State      adm1char.StateVariables

	// Outputs holds any derived output values.
	Outputs map[string]float64

	// Fault holds the error message if the result failed its checks.
	Fault string
}

// NewRecord creates a record from a conversion result.
func NewRecord(name string, c adm1char.Characterizer, r *adm1char.Result, outputs map[string]float64, fault error) *Record {
	rec := &Record{
		Created:    time.Now().UTC(),
		Name:       name,
		Input:      r.Input,
		Parameters: c.Parameters,
		State:      r.State,
		Outputs:    outputs,
	}
	if c.Charge != nil {
		rec.Charge = c.Charge.Name()
	} else {
		rec.Charge = adm1char.DefaultChargeSplit.Name()
	}
	if fault != nil {
		rec.Fault = fault.Error()
	}
	return rec
}

// Store is a SQLite-backed archive. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens or creates the archive database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("archive: no database path specified")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("archive: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created TEXT NOT NULL,
		name TEXT NOT NULL,
		charge TEXT NOT NULL,
		input TEXT NOT NULL,
		parameters TEXT NOT NULL,
		state TEXT NOT NULL,
		outputs TEXT NOT NULL,
		fault TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Save stores the given records in a single transaction and sets
// their IDs.
func (s *Store) Save(ctx context.Context, recs ...*Record) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, r := range recs {
		params, err := encodeParameters(r.Parameters)
		if err != nil {
			return err
		}
		var state bytes.Buffer
		if _, err := r.State.WriteTo(&state); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO runs(created,name,charge,input,parameters,state,outputs,fault) VALUES(?,?,?,?,?,?,?,?)`,
			r.Created.Format(time.RFC3339Nano), r.Name, r.Charge, formatMeasurement(r.Input),
			params, state.String(), formatOutputs(r.Outputs), r.Fault)
		if err != nil {
			return fmt.Errorf("archive: insert %s: %w", r.Name, err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("archive: insert %s: %w", r.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

const selectRuns = `SELECT id,created,name,charge,input,parameters,state,outputs,fault FROM runs`

// Load returns the record with the given ID.
func (s *Store) Load(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return r, err
}

// List returns the most recent records, newest first. If limit <= 0,
// all records are returned.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	q := selectRuns + ` ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var o []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		o = append(o, r)
	}
	return o, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r                                     Record
		created, input, params, state, output string
	)
	if err := row.Scan(&r.ID, &created, &r.Name, &r.Charge, &input, &params, &state, &output, &r.Fault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("archive: scan: %w", err)
	}
	var err error
	if r.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("archive: record %d: created: %w", r.ID, err)
	}
	if r.Input, err = parseMeasurement(input); err != nil {
		return nil, fmt.Errorf("archive: record %d: %w", r.ID, err)
	}
	if _, err = toml.Decode(params, &r.Parameters); err != nil {
		return nil, fmt.Errorf("archive: record %d: parameters: %w", r.ID, err)
	}
	sv, err := adm1char.ReadStateVariables(strings.NewReader(state))
	if err != nil {
		return nil, fmt.Errorf("archive: record %d: %w", r.ID, err)
	}
	r.State = *sv
	if r.Outputs, err = parseOutputs(output); err != nil {
		return nil, fmt.Errorf("archive: record %d: %w", r.ID, err)
	}
	return &r, nil
}

func encodeParameters(p adm1char.Parameters) (string, error) {
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(p); err != nil {
		return "", fmt.Errorf("archive: encoding parameters: %w", err)
	}
	return b.String(), nil
}

// Floats are stored as text so that NaN and infinite values survive.
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatMeasurement(m adm1char.Measurement) string {
	v := []float64{m.Flow, m.COD, m.TOC, m.NOrg, m.AlkIC, m.AlkVFA}
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = formatFloat(f)
	}
	return strings.Join(s, " ")
}

func parseMeasurement(s string) (adm1char.Measurement, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return adm1char.Measurement{}, fmt.Errorf("input has %d values but needs 6", len(fields))
	}
	v := make([]float64, len(fields))
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(f, 64); err != nil {
			return adm1char.Measurement{}, fmt.Errorf("input: %w", err)
		}
	}
	return adm1char.Measurement{Flow: v[0], COD: v[1], TOC: v[2], NOrg: v[3], AlkIC: v[4], AlkVFA: v[5]}, nil
}

// formatOutputs writes one "name value" pair per line, sorted by name.
func formatOutputs(o map[string]float64) string {
	names := make([]string, 0, len(o))
	for n := range o {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%s %s\n", n, formatFloat(o[n]))
	}
	return b.String()
}

func parseOutputs(s string) (map[string]float64, error) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	o := make(map[string]float64)
	for _, l := range lines {
		if l == "" {
			continue
		}
		f := strings.Fields(l)
		if len(f) != 2 {
			return nil, fmt.Errorf("invalid output line %q", l)
		}
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", f[0], err)
		}
		o[f[0]] = v
	}
	if len(o) == 0 {
		return nil, nil
	}
	return o, nil
}
