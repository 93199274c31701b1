package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	OwnershipErrorBadInput          = "OWNERSHIP_BAD_INPUT"
	OwnershipErrorIndexOutOfRange   = "OWNERSHIP_INDEX_OUT_OF_RANGE"
	OwnershipErrorUnauthorized      = "OWNERSHIP_UNAUTHORIZED"
	OwnershipErrorNullPrincipal     = "OWNERSHIP_NULL_PRINCIPAL"
	OwnershipErrorNoPendingTransfer = "OWNERSHIP_NO_PENDING_TRANSFER"
	OwnershipErrorConflict          = "OWNERSHIP_CONFLICT"
	OwnershipErrorInternal          = "OWNERSHIP_INTERNAL_ERROR"
)

func ownershipErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureOwnershipErrorEnvelope(richErr)
	}

	// Wrap keeps the sentinel in the chain so errors.Is still matches
	// after mapping.
	switch {
	case goerrors.Is(err, ErrSlotIndexOutOfRange):
		return wrapOwnershipError(err, goerrors.CategoryNotFound, OwnershipErrorIndexOutOfRange)
	case goerrors.Is(err, ErrUnauthorized):
		return wrapOwnershipError(err, goerrors.CategoryAuthz, OwnershipErrorUnauthorized)
	case goerrors.Is(err, ErrNullPrincipal):
		return wrapOwnershipError(err, goerrors.CategoryBadInput, OwnershipErrorNullPrincipal)
	case goerrors.Is(err, ErrNoPendingTransfer):
		return wrapOwnershipError(err, goerrors.CategoryConflict, OwnershipErrorNoPendingTransfer)
	case goerrors.Is(err, ErrSlotVersionConflict):
		return wrapOwnershipError(err, goerrors.CategoryConflict, OwnershipErrorConflict)
	case goerrors.Is(err, ErrRegistryNotSeeded):
		return wrapOwnershipError(err, goerrors.CategoryInternal, OwnershipErrorInternal)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newOwnershipError(err.Error(), goerrors.CategoryBadInput, OwnershipErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureOwnershipErrorEnvelope(mapped)
}

func wrapOwnershipError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureOwnershipErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func newOwnershipError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureOwnershipErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureOwnershipErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = ownershipHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultOwnershipTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultOwnershipTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return OwnershipErrorBadInput
	case goerrors.CategoryNotFound:
		return OwnershipErrorIndexOutOfRange
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return OwnershipErrorUnauthorized
	case goerrors.CategoryConflict:
		return OwnershipErrorConflict
	default:
		return OwnershipErrorInternal
	}
}

func ownershipHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
