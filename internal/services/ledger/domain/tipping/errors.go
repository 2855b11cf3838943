package tipping

import (
	"strconv"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
)

var (
	ErrUnauthorized       = apperrors.New(apperrors.CodeUnauthorized, "caller is not authorized")
	ErrInsufficientAmount = apperrors.New(apperrors.CodeInsufficientAmount, "insufficient amount")
	ErrCreatorInactive    = apperrors.New(apperrors.CodeCreatorInactive, "creator is not accepting donations")
	ErrMessageTooLong     = apperrors.New(apperrors.CodeMessageTooLong, "message too long")
	ErrInvalidInput       = apperrors.New(apperrors.CodeInvalidInput, "invalid input")
	ErrOverflow           = apperrors.New(apperrors.CodeArithmeticOverflow, "arithmetic overflow")
)

func insufficientAmount(required uint64) error {
	return apperrors.WithMetadata(apperrors.CodeInsufficientAmount, "insufficient amount", map[string]string{
		"Required": apperrors.Amount(required),
	})
}

func messageTooLong(length int) error {
	return apperrors.WithMetadata(apperrors.CodeMessageTooLong, "message too long", map[string]string{
		"Max":    strconv.Itoa(MaxMessageLength),
		"Length": strconv.Itoa(length),
	})
}

func invalidInput(message, field string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}

func overflow(field string) error {
	return apperrors.WithMetadata(apperrors.CodeArithmeticOverflow, "arithmetic overflow", map[string]string{"Field": field})
}
