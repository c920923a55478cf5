package service

import (
	"errors"
	"fmt"

	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

// notFoundOr maps repository.ErrNotFound to a 404 for resource and passes anything else through MapError.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}

// conflictOr maps repository.ErrDuplicate to a 409 with message.
func conflictOr(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict(message, nil)
	}
	return apperrors.MapError(err)
}

func departmentResource(id int64) string {
	return fmt.Sprintf("Department with ID %d", id)
}

func subDepartmentResource(id int64) string {
	return fmt.Sprintf("Sub-department with ID %d", id)
}

func positionResource(id int64) string {
	return fmt.Sprintf("Position with ID %d", id)
}

func ticketResource(id int64) string {
	return fmt.Sprintf("Ticket with ID %d", id)
}

const userResource = "User"
