// Package storage defines the persistence interfaces for the scheduling core.
//
// It provides a high-level abstraction for storing slots, bookings,
// matches, and directory records. Implementations of these interfaces
// (e.g., using SQLite) live in subpackages.
//
// # Error Types
//
// The package defines common error types used across storage implementations:
//   - ErrNotFound: Indicates a requested record is missing.
package storage
