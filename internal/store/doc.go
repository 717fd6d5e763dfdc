// Package store holds helpers shared by the ResultStore backends. Backends
// live in subpackages; this package must not import database drivers.
package store
