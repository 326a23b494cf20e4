package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

// toStatus maps an application error onto a gRPC status. Unclassified
// errors are reported as Internal without their detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codeOf(apperror.KindOf(err))
	if code == codes.Internal {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, apperror.MessageOf(err))
}

func codeOf(kind apperror.Kind) codes.Code {
	switch kind {
	case apperror.KindNotFound:
		return codes.NotFound
	case apperror.KindValidation,
		apperror.KindInvalidSchedule,
		apperror.KindNegativeAmortization,
		apperror.KindMissingRate,
		apperror.KindUnsupportedModel:
		return codes.InvalidArgument
	case apperror.KindInvalidState, apperror.KindNoPendingInstallments:
		return codes.FailedPrecondition
	case apperror.KindDuplicatePayment:
		return codes.AlreadyExists
	case apperror.KindConflict:
		return codes.Aborted
	case apperror.KindPersistence:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
