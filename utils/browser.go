package utils

import (
	"errors"
	"os/exec"
	"runtime"
)

// ErrBrowserUnavailable is returned when no system opener could be run;
// callers fall back to displaying the URL for manual copying.
var ErrBrowserUnavailable = errors.New("no system browser opener available")

// OpenInBrowser opens a URL in the user's default browser, used for the
// tracker authorization flow.
func OpenInBrowser(url string) error {
	var candidates [][]string
	switch runtime.GOOS {
	case "darwin":
		candidates = [][]string{{"open", url}}
	case "windows":
		candidates = [][]string{{"rundll32", "url.dll,FileProtocolHandler", url}}
	default:
		candidates = [][]string{{"xdg-open", url}, {"sensible-browser", url}}
	}

	for _, args := range candidates {
		cmd := exec.Command(args[0], args[1:]...)
		if err := cmd.Start(); err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				continue
			}
			return err
		}
		return nil
	}
	return ErrBrowserUnavailable
}
