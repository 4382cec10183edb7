package service

import (
	"errors"

	"maintenance-service/internal/repository"
	"maintenance-service/pkg/errs"
)

// lookupError maps a store read failure to the error taxonomy
func lookupError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound):
		return errs.NotFound(notFound)
	default:
		return errs.Internal("store read failed", err)
	}
}

// writeError maps a store write failure to the error taxonomy
func writeError(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound):
		return errs.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicateKey):
		return errs.Wrap(errs.ErrConflict, conflict, err)
	default:
		return errs.Internal("store write failed", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrRecordNotFound)
}
