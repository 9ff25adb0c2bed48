// Package core defines the shared language of the typegraph system.
//
// This package contains:
//   - The type metadata capability (Type, Member, Attribute)
//   - Module and Provider interfaces implemented by metadata back ends
//   - Sentinel errors shared by every layer
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
