package domain

import "errors"

// Domain errors.
var (
	ErrLockTimeout     = errors.New("could not acquire lock")
	ErrMalformedState  = errors.New("malformed state file")
	ErrMalformedLedger = errors.New("unreadable task ledger")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownDriver   = errors.New("unknown executor driver")
	ErrEmptyCommand    = errors.New("executor command is empty")
	ErrInvalidCron     = errors.New("invalid cron expression")
	ErrConfigExists    = errors.New("config file already exists")
)

// IsFatal reports whether err must stop the process with a non-zero exit:
// lock contention and malformed persisted documents. Everything else is absorbed by the loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, ErrMalformedState) ||
		errors.Is(err, ErrMalformedLedger)
}
