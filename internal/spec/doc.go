// Package spec defines the specification data model: the Specification
// document, its Features, the closed StructuredEdit union describing
// mutations, and the structural diff between two specifications.
//
// # Main Types
//
//   - [Specification]: the root document, the single source of truth
//   - [Feature]: a named unit of product scope with requirements and dependencies
//   - [StructuredEdit]: sealed union of AddFeature, RemoveFeature, UpdateFeature, UpdateMetadata
//   - [Diff]: structural difference between two specifications
//
// These are pure data types plus validation helpers. All mutation goes
// through the controller package; nothing in this package touches storage.
//
// # Invariants
//
// Feature identifiers are unique within a Specification. A Feature may not
// depend on itself, directly or transitively; Validate reports a CycleError
// for any dependency cycle. Dependency references must name existing
// features.
package spec
