package domain

import "errors"

// Sentinel errors returned by the mapping service. Callers branch on them
// with errors.Is; the wrapped chain still carries the underlying cause.
var (
	ErrNotFound      = errors.New("short code not found")
	ErrDuplicateCode = errors.New("short code already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStore         = errors.New("store error")
)

// ErrorKind is the closed set of failure classes a mapping operation reports
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindDuplicateCode
	KindInvalidInput
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindDuplicateCode:
		return "duplicate_code"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "store_error"
	}
}

// KindOf classifies err. Anything that is not one of the known sentinels is
// treated as a store failure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateCode):
		return KindDuplicateCode
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindStore
	}
}
