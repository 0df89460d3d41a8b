package services

import (
	"errors"

	"chitieu/internal/config"
	"chitieu/internal/core"
	"chitieu/internal/remote"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found in the current view")
	ErrNoActiveChart       = errors.New("no chart data, run a chart filter first")
	ErrSuperseded          = errors.New("result superseded by a newer request")
	ErrMutationInProgress  = errors.New("another change is being submitted")
	ErrUnknownTab          = errors.New("unknown tab")
	ErrInvalidDirection    = errors.New("direction must be next or prev")
	ErrNotPaginated        = errors.New("view is not paginated")
	ErrNothingToPage       = errors.New("view has not been loaded")
	ErrUnknownCategory     = errors.New("category does not exist")
	ErrUnknownKeyword      = errors.New("keyword does not exist in category")
)

// ErrorKind classifies an error for renderers.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindRemote     ErrorKind = "remote"
	KindTransport  ErrorKind = "transport"
	KindConflict   ErrorKind = "conflict"
	KindConfig     ErrorKind = "config"
	KindInternal   ErrorKind = "internal"
)

func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case core.IsValidation(err), errors.Is(err, ErrNoActiveChart):
		return KindValidation
	case errors.Is(err, ErrTransactionNotFound):
		return KindNotFound
	case remote.IsRemote(err):
		return KindRemote
	case remote.IsTransport(err):
		return KindTransport
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrMutationInProgress):
		return KindConflict
	case config.IsConfigError(err):
		return KindConfig
	}
	return KindInternal
}
