// Package mode decides, once per process, whether the remote tier is used at all.
package mode

import (
	"strings"

	"github.com/and161185/storefront/internal/config"
)

// Controller carries the remote-or-local decision. It is immutable after
// construction and shared by every component through dependency injection.
type Controller struct {
	remote bool
	reason string
}

// Detect decides from the remote configuration section.
func Detect(rc config.RemoteConfig) *Controller {
	switch {
	case IsPlaceholder(rc.URL):
		return &Controller{reason: "remote url missing or placeholder"}
	case IsPlaceholder(rc.Credential):
		return &Controller{reason: "remote credential missing or placeholder"}
	}
	return &Controller{remote: true, reason: "remote configured"}
}

// RemoteBacked returns a controller that allows remote calls.
func RemoteBacked() *Controller { return &Controller{remote: true, reason: "forced"} }

// LocalOnly returns a controller that skips every remote call.
func LocalOnly() *Controller { return &Controller{reason: "forced"} }

// RemoteAvailable reports whether remote calls may be attempted.
// A nil controller means local-only.
func (c *Controller) RemoteAvailable() bool {
	return c != nil && c.remote
}

// Reason explains the decision for logs and the CLI.
func (c *Controller) Reason() string {
	if c == nil {
		return "no controller"
	}
	return c.reason
}

func (c *Controller) String() string {
	if c.RemoteAvailable() {
		return "remote-backed"
	}
	return "local-only"
}

var placeholders = []string{
	"your-project",
	"your-anon-key",
	"your_supabase",
	"changeme",
	"change-me",
	"placeholder",
	"example.com",
	"<",
}

// IsPlaceholder reports whether v is empty or still carries a template value.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, p := range placeholders {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}
