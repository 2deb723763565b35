package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
)

// StoredProperty is a property row read back from the store.
type StoredProperty struct {
	Handle emit.Handle
	// Hash is the logical property hash (ir.PropertyHash).
	Hash string
	emit.PropertyRecord
}

// StoredSet is a set row with its members and targets in emission order.
type StoredSet struct {
	Handle emit.Handle
	emit.SetRecord
}

// Counts summarizes the rows in a store.
type Counts struct {
	Properties int `json:"properties"`
	Sets       int `json:"sets"`
	Members    int `json:"members"`
	Targets    int `json:"targets"`
}

// ListSets returns every set ordered by handle.
//
// Returns an empty slice (not nil) if the store holds no sets.
func (s *Store) ListSets(ctx context.Context) ([]StoredSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT handle, global_id, name, kind, description, application, author, session
		FROM property_sets
		ORDER BY handle ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}

	sets := []StoredSet{}
	index := make(map[emit.Handle]int)
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[set.Handle] = len(sets)
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sets: %w", err)
	}
	// The pool holds a single connection; release it before the next query.
	rows.Close()

	err = s.eachLink(ctx, "set_members", "property_handle", func(set, h emit.Handle) {
		if i, ok := index[set]; ok {
			sets[i].Members = append(sets[i].Members, h)
		}
	})
	if err != nil {
		return nil, err
	}
	err = s.eachLink(ctx, "set_targets", "target_handle", func(set, h emit.Handle) {
		if i, ok := index[set]; ok {
			sets[i].Targets = append(sets[i].Targets, h)
		}
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// eachLink walks a link table in (set_handle, position) order.
func (s *Store) eachLink(ctx context.Context, table, column string, fn func(set, h emit.Handle)) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT set_handle, %s FROM %s
		ORDER BY set_handle ASC, position ASC
	`, column, table))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var set, h int64
		if err := rows.Scan(&set, &h); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		fn(emit.Handle(set), emit.Handle(h))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

// SetProperties returns the members of one set in member order. A property
// shared by several sets carries the name of the set that first emitted it.
func (s *Store) SetProperties(ctx context.Context, set emit.Handle) ([]StoredProperty, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.handle, p.set_name, p.name, p.container, p.kind, p.value, p.quantity, p.method, p.property_hash
		FROM set_members m
		JOIN properties p ON p.handle = m.property_handle
		WHERE m.set_handle = ?
		ORDER BY m.position ASC
	`, int64(set))
	if err != nil {
		return nil, fmt.Errorf("query set properties: %w", err)
	}
	defer rows.Close()

	props := []StoredProperty{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate set properties: %w", err)
	}
	return props, nil
}

// ListProperties returns every property ordered by handle.
func (s *Store) ListProperties(ctx context.Context) ([]StoredProperty, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT handle, set_name, name, container, kind, value, quantity, method, property_hash
		FROM properties
		ORDER BY handle ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	props := []StoredProperty{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return props, nil
}

// Property reads a single property by handle.
// Returns sql.ErrNoRows (wrapped) if the handle is not a property.
func (s *Store) Property(ctx context.Context, h emit.Handle) (StoredProperty, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT handle, set_name, name, container, kind, value, quantity, method, property_hash
		FROM properties
		WHERE handle = ?
	`, int64(h))
	p, err := scanProperty(row)
	if err != nil {
		return StoredProperty{}, fmt.Errorf("property %s: %w", h, err)
	}
	return p, nil
}

// Counts returns the number of rows in each table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM properties),
			(SELECT COUNT(*) FROM property_sets),
			(SELECT COUNT(*) FROM set_members),
			(SELECT COUNT(*) FROM set_targets)
	`).Scan(&c.Properties, &c.Sets, &c.Members, &c.Targets)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSet(sc scanner) (StoredSet, error) {
	var (
		set    StoredSet
		handle int64
		kind   string
	)
	err := sc.Scan(
		&handle,
		&set.GlobalID,
		&set.Name,
		&kind,
		&set.Description,
		&set.Owner.Application,
		&set.Owner.Author,
		&set.Owner.Session,
	)
	if err != nil {
		return StoredSet{}, fmt.Errorf("scan set: %w", err)
	}
	set.Handle = emit.Handle(handle)
	if set.Kind, err = parseSetKind(kind); err != nil {
		return StoredSet{}, fmt.Errorf("scan set %s: %w", set.Handle, err)
	}
	return set, nil
}

func scanProperty(sc scanner) (StoredProperty, error) {
	var (
		p         StoredProperty
		handle    int64
		container string
		kind      string
		value     string
	)
	err := sc.Scan(
		&handle,
		&p.SetName,
		&p.Name,
		&container,
		&kind,
		&value,
		&p.Quantity,
		&p.MethodOfMeasurement,
		&p.Hash,
	)
	if err == sql.ErrNoRows {
		return StoredProperty{}, err
	}
	if err != nil {
		return StoredProperty{}, fmt.Errorf("scan property: %w", err)
	}
	p.Handle = emit.Handle(handle)

	if p.Container, err = ir.ParseContainerKind(container); err != nil {
		return StoredProperty{}, fmt.Errorf("scan property %s: %w", p.Handle, err)
	}
	if p.Kind, err = ir.ParseMeasureKind(kind); err != nil {
		return StoredProperty{}, fmt.Errorf("scan property %s: %w", p.Handle, err)
	}
	if p.Value, err = unmarshalValue(value); err != nil {
		return StoredProperty{}, fmt.Errorf("scan property %s: %w", p.Handle, err)
	}
	return p, nil
}
