// Package apperr holds the error kinds shared by the ledger services and the
// stores. Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientBudget  = errors.New("insufficient teacher budget")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrOutOfStock          = errors.New("reward out of stock")
	ErrDuplicatePending    = errors.New("pending claim already exists")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrUnrelatedAccounts   = errors.New("accounts are not related")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrUnknownStudent      = errors.New("unknown student")
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnknownReward       = errors.New("unknown reward")
	ErrUnknownClaim        = errors.New("unknown claim")
	ErrUnknownReport       = errors.New("unknown report")
	ErrUnknownNotification = errors.New("unknown notification")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrAlreadyLoggedToday  = errors.New("emotion already logged today")
	ErrInvalidEmotion      = errors.New("invalid emotion")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAccountFrozen       = errors.New("account frozen")
	ErrRewardInUse         = errors.New("reward has open claims")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// Error: ошибка с операцией и видом. Kind всегда один из Err* выше.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func E(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

func New(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Store оборачивает сбой хранилища, если это ещё не доменная ошибка.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Wrap(op, ErrStoreUnavailable, err)
}

// Remap заменяет вид ошибки, сохраняя цепочку. Используется, когда общий
// ErrInsufficientBalance уточняется до бюджета учителя или баллов ученика.
func Remap(err error, from, to error) error {
	if err == nil || !errors.Is(err, from) {
		return err
	}
	return &Error{Op: opOf(err), Kind: to, Err: err}
}

func opOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Op
	}
	return ""
}

func IsRetryable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrUnknownStudent) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrUnknownReward) ||
		errors.Is(err, ErrUnknownClaim) ||
		errors.Is(err, ErrUnknownReport) ||
		errors.Is(err, ErrUnknownNotification)
}

var codes = []struct {
	kind error
	code string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidInput, "invalid_input"},
	{ErrInsufficientBudget, "insufficient_budget"},
	{ErrInsufficientPoints, "insufficient_points"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrOutOfStock, "out_of_stock"},
	{ErrDuplicatePending, "duplicate_pending"},
	{ErrDuplicateRequest, "duplicate_request"},
	{ErrUnrelatedAccounts, "unrelated_accounts"},
	{ErrUnknownStudent, "unknown_student"},
	{ErrUnknownAccount, "unknown_account"},
	{ErrUnknownAction, "unknown_action"},
	{ErrUnknownReward, "unknown_reward"},
	{ErrUnknownClaim, "unknown_claim"},
	{ErrUnknownReport, "unknown_report"},
	{ErrUnknownNotification, "unknown_notification"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrAlreadyLoggedToday, "already_logged_today"},
	{ErrInvalidEmotion, "invalid_emotion"},
	{ErrForbidden, "forbidden"},
	{ErrUnauthorized, "unauthorized"},
	{ErrAccountFrozen, "account_frozen"},
	{ErrRewardInUse, "reward_in_use"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Code returns a stable machine code for err. More specific kinds come first,
// so a remapped insufficient balance reports the refined code.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "internal"
}
