// Package memstore is an in-memory record store that lists records through
// compiled filter predicates.
package memstore

import (
	"errors"
	"fmt"
	"maps"

	u "github.com/araddon/gou"
	"github.com/hashicorp/go-memdb"
	"github.com/pborman/uuid"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/filterqlvm"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

const (
	tableName = "rows"
	idIndex   = "id"
)

var (
	// ErrNotFound is returned when deleting an id that isn't stored.
	ErrNotFound = errors.New("memstore: not found")

	_ predicate.Record = (*Row)(nil)
)

// Row is one stored record.
type Row struct {
	ID     string
	Fields map[string]interface{}
}

// Get reads a field, the id is readable as field "id".
func (m *Row) Get(field string) (value.Value, bool) {
	if v, ok := m.Fields[field]; ok {
		return value.NewValue(v), true
	}
	if field == idIndex {
		return value.NewStringValue(m.ID), true
	}
	return nil, false
}

// clone copies the row and its field map, field values are shared.
func (m *Row) clone() *Row {
	return &Row{ID: m.ID, Fields: maps.Clone(m.Fields)}
}

// Store is a go-memdb backed table of rows for one schema.
type Store struct {
	schema *schema.Schema
	db     *memdb.MemDB
	vm     *filterqlvm.FilterVM
}

// New creates an empty store for rows described by s. Options configure the
// vm used by Where.
func New(s *schema.Schema, opts ...filterqlvm.Option) (*Store, error) {
	if s == nil {
		return nil, errors.New("memstore: schema must not be nil")
	}
	db, err := memdb.NewMemDB(&memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableName: {
				Name: tableName,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{schema: s, db: db, vm: filterqlvm.NewFilterVM(opts...)}, nil
}

// Insert stores copies of rows, replacing any with the same id, and returns
// the stored ids in order. Rows without an id are stored under a new uuid.
// The caller's rows are never modified.
func (m *Store) Insert(rows ...*Row) ([]string, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		cp := row.clone()
		if cp.ID == "" {
			cp.ID = uuid.New()
		}
		if err := txn.Insert(tableName, cp); err != nil {
			return nil, fmt.Errorf("memstore: insert %s: %w", cp.ID, err)
		}
		ids = append(ids, cp.ID)
	}
	txn.Commit()
	u.Debugf("%s: inserted %d rows", m.schema.Name, len(rows))
	return ids, nil
}

// Get returns a copy of the row with id.
func (m *Store) Get(id string) (*Row, bool) {
	txn := m.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableName, idIndex, id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*Row).clone(), true
}

// Delete removes the row with id.
func (m *Store) Delete(id string) error {
	txn := m.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableName, idIndex, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Delete(tableName, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Len is the number of stored rows.
func (m *Store) Len() int {
	n := 0
	m.scan(func(*Row) { n++ })
	return n
}

// Select returns copies of the rows accepted by p, ordered by id.
func (m *Store) Select(p predicate.Predicate) []*Row {
	var out []*Row
	m.scan(func(r *Row) {
		if p.Eval(r) {
			out = append(out, r.clone())
		}
	})
	return out
}

// Where compiles node against the store's schema and selects with it. A nil
// node lists every row.
func (m *Store) Where(node expr.Node) ([]*Row, error) {
	p, err := m.vm.Compile(node, m.schema)
	if err != nil {
		u.Warnf("%s: bad filter %v: %v", m.schema.Name, node, err)
		return nil, err
	}
	return m.Select(p), nil
}

func (m *Store) scan(fn func(*Row)) {
	txn := m.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableName, idIndex)
	if err != nil {
		// only fails for an unknown table or index
		u.Errorf("memstore: scan: %v", err)
		return
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		fn(obj.(*Row))
	}
}
