package content

import (
	"errors"
	"fmt"
)

// ErrNotImplemented marks a capability gap in one plugin. Callers treat
// it as "feature unavailable here", never as a failure to surface.
var ErrNotImplemented = errors.New("not implemented by this source")

// UnavailableError reports that the site itself refused or blocked the
// content (licensing, region locks). Its message is shown to the user
// verbatim.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("content unavailable: %s", e.Message)
}

// NotAuthenticatedError reports a tracker operation attempted without
// valid credentials. The caller must prompt for re-authentication rather
// than drop the update.
type NotAuthenticatedError struct {
	Tracker string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("not authenticated with %s", e.Tracker)
}

// IsUnavailable reports whether err carries an UnavailableError, and
// returns its message when it does.
func IsUnavailable(err error) (string, bool) {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Message, true
	}
	return "", false
}

// IsNotAuthenticated reports whether err is a missing-credentials error.
func IsNotAuthenticated(err error) bool {
	var notAuth *NotAuthenticatedError
	return errors.As(err, &notAuth)
}
