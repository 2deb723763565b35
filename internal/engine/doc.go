// Package engine resolves property and quantity set entries against host
// elements and emits the resulting sets.
//
// A Session is one export pass. It owns the value cache and borrows an
// immutable registry and an emitter:
//
//	s := engine.NewSession(reg, emitter, engine.WithScale(sc), engine.WithLogger(log))
//	defer s.Close()
//	for _, e := range model.Entities {
//		if _, err := s.Export(ctx, e); err != nil {
//			return err
//		}
//	}
//
// Resolution of one entry is ordered and short-circuiting:
//
//  1. Unless the entry is calculator-only: the localized source name, the
//     primary source name and the built-in identifier on the instance, then
//     the same three on the instance's type. Types are never followed
//     further.
//  2. The bound calculator, if any.
//  3. Enumerated entries keep only values matching a token.
//
// A source whose value is rejected by coercion or enumeration counts as
// empty and the chain moves on. Absence is never an error; host faults are
// returned wrapped in a *RuntimeError and never treated as absence.
//
// Sessions are single-threaded. Entities are processed strictly in call
// order and emission order is deterministic: sets in registry order,
// entries in declaration order.
package engine
