package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/book"
	"github.com/mmynk/splitledger/internal/settlement"
)

// toConnectError maps domain errors to RPC codes. Errors that already carry
// a code pass through.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	switch {
	case errors.Is(err, book.ErrUnknownFriend),
		errors.Is(err, book.ErrUnknownTransaction):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, settlement.ErrInvalidTransition),
		errors.Is(err, settlement.ErrNotSettlement),
		errors.Is(err, settlement.ErrNothingToSettle),
		errors.Is(err, book.ErrOutstandingBalance),
		errors.Is(err, book.ErrFriendInUse):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
}
