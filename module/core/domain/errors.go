package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCatalogInvalid = errors.New("catalog invalid")
	ErrEmptyPool      = errors.New("empty notification pool")
	ErrExternalSource = errors.New("external source failure")
	ErrUnknownRegion  = errors.New("unknown region")
	ErrNotFound       = errors.New("not found")
)

// CatalogValidationError lists every problem found in a catalog. It is fatal
// at load time.
type CatalogValidationError struct {
	Problems []string
}

func (e *CatalogValidationError) Error() string {
	return fmt.Sprintf("catalog invalid: %s", strings.Join(e.Problems, "; "))
}

func (e *CatalogValidationError) Unwrap() error { return ErrCatalogInvalid }

type EmptyPoolError struct {
	RegionID RegionID
}

func (e *EmptyPoolError) Error() string {
	return fmt.Sprintf("region %q: empty notification pool", e.RegionID)
}

func (e *EmptyPoolError) Unwrap() error { return ErrEmptyPool }

// ExternalSourceError wraps a failure reported by a collaborator (location
// source, notification sink, history store) without interpreting it.
type ExternalSourceError struct {
	Op  string
	Err error
}

func (e *ExternalSourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalSourceError) Unwrap() []error { return []error{ErrExternalSource, e.Err} }

// RegionError ties a per-region failure to the region it came from.
type RegionError struct {
	RegionID RegionID
	Err      error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %q: %v", e.RegionID, e.Err)
}

func (e *RegionError) Unwrap() error { return e.Err }
