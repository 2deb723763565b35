// Package ir provides the typed value representation shared by coercion,
// caching, emission and storage.
//
// The package holds the value model, its canonical encoding and the
// application identity. All other internal packages import ir; ir imports
// nothing internal. This keeps the value model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is sealed: only the types in value.go implement it
//   - MeasureKind and ContainerKind are closed enumerations
//   - Canonical JSON (RFC 8785 ordering, NFC strings) is the only encoding
//     used for content hashing; floats use the shortest round-trip form
//   - All JSON tags use snake_case
package ir
