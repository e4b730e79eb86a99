package llm

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrConfiguration is returned when guided generation is required but no credential is available.
	ErrConfiguration = errors.New("language model client is not configured")

	// ErrService matches every ServiceError.
	ErrService = errors.New("language model service error")
)

// ServiceError wraps a failed round trip to the language model: transport, auth,
// rate limit or an unusable response.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm %s failed", e.Op)
	}
	return fmt.Sprintf("llm %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrService }

func newServiceError(op string, err error) error {
	return &ServiceError{Op: op, Err: errors.WithStack(err)}
}
