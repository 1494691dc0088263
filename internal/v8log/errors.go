package v8log

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError reports a log record that cannot be decoded: a malformed
// numeric token or a record with too few fields. It is fatal to the
// processing of the log that contains it.
type FormatError struct {
	Line  int // 1-based line within the payload, 0 when unknown
	Token string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("v8 log line %d: malformed token %q: %v", e.Line, e.Token, e.Err)
	}
	return fmt.Sprintf("v8 log: malformed token %q: %v", e.Token, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors walk through the wrapper.
func (e *FormatError) Cause() error { return e.Err }

func formatErrorf(token string, format string, args ...interface{}) *FormatError {
	return &FormatError{Token: token, Err: errors.Errorf(format, args...)}
}

// withLine stamps the line number onto a FormatError if it does not carry one yet.
func withLine(err error, line int) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Line == 0 {
		fe.Line = line
	}
	return err
}

// IsFormatError reports whether err, or anything it wraps, is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
