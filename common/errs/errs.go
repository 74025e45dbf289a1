package errs

import (
	"fmt"

	cr "github.com/cockroachdb/errors"
)

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

// Repository sentinels. Driver errors are marked with these so callers can
// branch on them with Is without knowing about pgx.
var (
	ErrOrderNotFound    = cr.New("order not found")
	ErrOrderNotUpdated  = cr.New("order not updated")
	ErrCustomerNotFound = cr.New("customer not found")
	ErrStaffNotFound    = cr.New("staff not found")
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Is reports whether err is or was marked as target.
func Is(err, target error) bool {
	return cr.Is(err, target)
}
