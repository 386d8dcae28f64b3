// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import "github.com/pkg/errors"

var (
	// ErrVersionConflict is returned when an update carries a stale version.
	ErrVersionConflict = errors.New("record was modified concurrently")
	// ErrNotSaved is returned when the store could not durably save a record list.
	ErrNotSaved = errors.New("record list could not be saved")
)
