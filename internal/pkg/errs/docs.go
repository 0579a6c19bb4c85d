// Package errs provides the standardized error types used across the service.
//
// Every type follows the same pattern: a sentinel error variable for
// classification with errors.Is, a struct carrying the failure details,
// constructors with and without an underlying cause, and Error/Unwrap methods.
// Messages are sanitized to a single line so they stay readable in logs.
package errs
