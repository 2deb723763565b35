package store

import (
	"context"
	"fmt"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
)

// EmitProperty inserts a property record and returns its handle.
//
// The value is stored as tagged JSON next to its property hash, the
// logical identity (set, name, container, kind, value) that stays the same
// whether or not the session deduplicated it.
func (s *Store) EmitProperty(ctx context.Context, rec emit.PropertyRecord) (emit.Handle, error) {
	value, err := marshalValue(rec.Value)
	if err != nil {
		return 0, fmt.Errorf("write property %s: %w", rec.Name, err)
	}
	hash, err := ir.PropertyHash(rec.SetName, rec.Name, rec.Container, rec.Kind, rec.Value)
	if err != nil {
		return 0, fmt.Errorf("write property %s: %w", rec.Name, err)
	}

	h := s.allocate()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO properties
		(handle, set_name, name, container, kind, value, quantity, method, property_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(h),
		rec.SetName,
		rec.Name,
		rec.Container.String(),
		rec.Kind.String(),
		value,
		rec.Quantity,
		rec.MethodOfMeasurement,
		hash,
	)
	if err != nil {
		return 0, fmt.Errorf("write property %s: %w", rec.Name, err)
	}
	return h, nil
}

// EmitPropertySet inserts a set with its members and targets in one
// transaction. Members must be handles previously returned by
// EmitProperty (foreign key constraint).
func (s *Store) EmitPropertySet(ctx context.Context, rec emit.SetRecord) (emit.Handle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write set %s: begin tx: %w", rec.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	h := s.allocate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO property_sets
		(handle, global_id, name, kind, description, application, author, session)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(h),
		rec.GlobalID,
		rec.Name,
		rec.Kind.String(),
		rec.Description,
		rec.Owner.Application,
		rec.Owner.Author,
		rec.Owner.Session,
	)
	if err != nil {
		return 0, fmt.Errorf("write set %s: %w", rec.Name, err)
	}

	for i, m := range rec.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO set_members (set_handle, position, property_handle)
			VALUES (?, ?, ?)
		`, int64(h), i, int64(m)); err != nil {
			return 0, fmt.Errorf("write set %s: member %s: %w", rec.Name, m, err)
		}
	}

	for i, t := range rec.Targets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO set_targets (set_handle, position, target_handle)
			VALUES (?, ?, ?)
		`, int64(h), i, int64(t)); err != nil {
			return 0, fmt.Errorf("write set %s: target %s: %w", rec.Name, t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write set %s: commit: %w", rec.Name, err)
	}
	return h, nil
}
