package apperror

import (
	"context"
	"errors"
	"sort"

	"github.com/fekuna/omnipos-storefront/pkg/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInsufficientInventory),
		errors.Is(err, ErrInvalidStatusTransition),
		errors.Is(err, ErrDownloadLimitReached):
		return codes.FailedPrecondition
	case errors.Is(err, ErrExpiredToken), errors.Is(err, ErrInvalidToken):
		return codes.PermissionDenied
	default:
		return codes.InvalidArgument
	}
}

// ToStatus converts a business error into a localized gRPC status. Anything
// else becomes codes.Internal without leaking the cause.
func ToStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	id, data, ok := MessageID(err)
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	lang := Language(ctx)
	st := status.New(grpcCode(err), i18n.T(lang, id, data))

	var verr *ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		br := &errdetails.BadRequest{}
		for _, f := range fields {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       f,
				Description: i18n.T(lang, verr.Fields[f], nil),
			})
		}
		if withDetails, derr := st.WithDetails(br); derr == nil {
			st = withDetails
		}
	}
	return st.Err()
}

// Language reads accept-language from incoming gRPC metadata.
func Language(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("accept-language"); len(v) > 0 {
			return v[0]
		}
	}
	return "en"
}
