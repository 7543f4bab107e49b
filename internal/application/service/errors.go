package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/sangkips/quickbill-api/pkg/apperror"
)

// translateRepoError maps persistence sentinels onto the error taxonomy
func translateRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return apperror.NewConflictError(resource + " was modified by another request, reload and try again")
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.NewConflictError(resource + " already exists")
	default:
		return err
	}
}

func checkOwner(ownerID, userID uuid.UUID, resource string) error {
	if ownerID != userID {
		return apperror.NewAuthorizationError("You do not have access to this " + resource)
	}
	return nil
}
