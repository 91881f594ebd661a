package repository

import (
	"errors"

	"github.com/abrezinsky/pickem/internal/docstore"
)

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying document store from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when creating a record whose id is taken
var ErrAlreadyExists = errors.New("record already exists")

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, docstore.ErrAlreadyExists):
		return ErrAlreadyExists
	}
	return err
}
