package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/auth"
	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/internal/transfer"
)

var errNotAuthor = errors.New("only the author can change this entry")

// connectError maps domain errors onto connect codes.
func connectError(err error) error {
	var ce *connect.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, household.ErrNotOwner),
		errors.Is(err, household.ErrNotMember),
		errors.Is(err, household.ErrEditRestricted),
		errors.Is(err, errNotAuthor):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, household.ErrOwnerCannotLeave):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, household.ErrInvalidName),
		errors.Is(err, household.ErrNameTooLong),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, transfer.ErrSameHousehold):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}
