package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/trace/internal/common"
)

// maxDiagnosticBody bounds how much of a non-JSON body is kept on a
// ProtocolError.
const maxDiagnosticBody = 200

// BackendError is a well-formed JSON error answer. A 401 also matches
// common.ErrAuthExpired.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Is(target error) bool {
	return target == common.ErrAuthExpired && e.Status == http.StatusUnauthorized
}

// ProtocolError is a response whose body is not JSON. It matches
// common.ErrNetwork and carries the start of the body for diagnostics.
type ProtocolError struct {
	Status      int
	ContentType string
	Body        string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected %q response (status %d): %s", common.ErrNetwork, e.ContentType, e.Status, e.Body)
}

func (e *ProtocolError) Unwrap() error {
	return common.ErrNetwork
}

func truncate(b []byte) string {
	if len(b) <= maxDiagnosticBody {
		return string(b)
	}
	return string(b[:maxDiagnosticBody]) + "..."
}

// IsAuthExpired reports whether err is a 401 from the backend.
func IsAuthExpired(err error) bool {
	return errors.Is(err, common.ErrAuthExpired)
}
