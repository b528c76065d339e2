package domain

import (
	"errors"
	"fmt"
	"time"
)

type ValidationKind string

const (
	KindDuplicateName                  ValidationKind = "DUPLICATE_NAME"
	KindInvalidName                    ValidationKind = "INVALID_NAME"
	KindInvalidStatus                  ValidationKind = "INVALID_STATUS"
	KindInvalidPercentage              ValidationKind = "INVALID_PERCENTAGE"
	KindInvalidStock                   ValidationKind = "INVALID_STOCK"
	KindPercentageSumInvalid           ValidationKind = "PERCENTAGE_SUM_INVALID"
	KindGuaranteedWinRequiresUnlimited ValidationKind = "GUARANTEED_WIN_REQUIRES_UNLIMITED"
	KindCannotRemoveLastUnlimited      ValidationKind = "CANNOT_REMOVE_LAST_UNLIMITED"
	KindEmptyActionSet                 ValidationKind = "EMPTY_ACTION_SET"
	KindUnknownOrInactiveAction        ValidationKind = "UNKNOWN_OR_INACTIVE_ACTION"
	KindDuplicatePosition              ValidationKind = "DUPLICATE_POSITION"
	KindInvalidPosition                ValidationKind = "INVALID_POSITION"
	KindInvalidLink                    ValidationKind = "INVALID_LINK"
)

// ValidationError is returned by configuration-time operations before
// anything is written. Index points at the offending input, or is -1 when
// the rule applies to the set as a whole.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Index   int
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s (item %d)", e.Kind, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(kind ValidationKind, index int, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...), Index: index}
}

type Resource string

const (
	ResourceShop                 Resource = "shop"
	ResourceReward               Resource = "reward"
	ResourceActiveGameAssignment Resource = "active game assignment"
	ResourceAction               Resource = "action"
)

type NotFoundError struct {
	Resource Resource
	ID       uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NewNotFoundError(resource Resource, id uint64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// CooldownError rejects a play attempted inside the cooldown window.
type CooldownError struct {
	NextAllowedAt time.Time
	Remaining     time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("play not allowed until %s", e.NextAllowedAt.Format(time.RFC3339))
}

func (e *CooldownError) RemainingMs() int64 {
	return e.Remaining.Milliseconds()
}

// ConcurrencyError reports a lost race against another request.
type ConcurrencyError struct {
	Reason string
}

func (e *ConcurrencyError) Error() string {
	return "concurrent modification: " + e.Reason
}

var (
	ErrStockExhausted = &ConcurrencyError{Reason: "reward stock exhausted by a concurrent draw"}
	ErrPlayInProgress = &ConcurrencyError{Reason: "another play for this user and shop is in progress"}
)

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
