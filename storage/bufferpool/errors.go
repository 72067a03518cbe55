package bufferpool

import "errors"

// Sentinel errors and wrapping shape grounded on
// server/innodb/buffer_pool/errors.go (BufferPoolError{Op, Err}, IsXxx
// predicates).
var (
	ErrPageNotFound  = errors.New("bufferpool: page not found")
	ErrInvalidConfig = errors.New("bufferpool: invalid configuration")
	ErrIO            = errors.New("bufferpool: io error")
)

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// IsNotFound reports whether err is or wraps ErrPageNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrPageNotFound) }

// IsIOError reports whether err is or wraps ErrIO.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }
