// Package browser opens authorization URLs in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Starter launches a command without waiting for it.
type Starter func(name string, args ...string) error

// Opener opens URLs with a platform-specific command.
type Opener struct {
	goos  string
	start Starter
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startCommand}
}

// NewWithStarter returns an Opener that launches commands through start, as
// if running on goos.
func NewWithStarter(goos string, start Starter) *Opener {
	return &Opener{goos: goos, start: start}
}

// Open opens the specified URL in the default browser.
// The URL is validated before being passed to the system to prevent command injection.
func (o *Opener) Open(urlString string) error {
	if err := Validate(urlString); err != nil {
		return err
	}

	switch o.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return o.start("xdg-open", urlString)
	case "darwin":
		return o.start("open", urlString)
	case "windows":
		return o.start("rundll32", "url.dll,FileProtocolHandler", urlString)
	default:
		return fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// Open opens urlString with the current platform's opener.
func Open(urlString string) error {
	return New().Open(urlString)
}

// Validate accepts only absolute http and https URLs with a host.
func Validate(urlString string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Whitelist allowed schemes to prevent malicious URLs
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated by Open
}
