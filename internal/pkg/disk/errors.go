package disk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors callers branch on via errors.Is.
var (
	// ErrNotFound means the remote path does not exist.
	ErrNotFound = errors.New("remote file not found")
	// ErrLocked means the remote file is held open elsewhere (for example a
	// human editing it in a browser) and cannot be overwritten right now.
	ErrLocked = errors.New("remote file locked")
)

// apiError carries the HTTP status and response body of a failed API call.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("disk api error: status %d: %s", e.status, e.body)
}

// classify maps an HTTP status and body to the error taxonomy the sync
// layer depends on: not-found, locked/conflict, or generic failure.
func classify(status int, body string) error {
	base := &apiError{status: status, body: body}
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, base)
	case status == http.StatusConflict, status == http.StatusLocked:
		return fmt.Errorf("%w: %w", ErrLocked, base)
	}
	lower := strings.ToLower(body)
	for _, keyword := range []string{"locked", "blocked", "busy", "conflict"} {
		if strings.Contains(lower, keyword) {
			return fmt.Errorf("%w: %w", ErrLocked, base)
		}
	}
	return base
}

// IsNotFound reports whether err means the remote path is absent.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsLocked reports whether err means the remote file is busy and the caller
// should apply the soft-fail policy instead of propagating.
func IsLocked(err error) bool { return errors.Is(err, ErrLocked) }
