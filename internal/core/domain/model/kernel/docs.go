// Package kernel holds the shared value objects of the domain model:
// identifiers and geographic coordinates. All types are immutable and can
// only be created through their constructor functions, so a value that
// passes Validate is guaranteed to be well-formed.
package kernel
