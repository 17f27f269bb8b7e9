// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "rpdl"

	// Version is the current application semantic version string.
	Version = "0.3.1"

	// UserAgent is the desktop browser User-Agent sent with the master manifest request.
	// The portal serves alternate content to non-browser agents.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// PortalHost is the streaming portal whose video pages are accepted.
	PortalHost = "raiplay.it"

	// Repository is the upstream repository used for release lookups.
	Repository = "rpdl/rpdl"
)

// Build metadata, overridden through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
