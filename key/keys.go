// Package key names every setting rpdl reads through viper.
package key

// Downloads.
const (
	DownloadParallel  = "download.parallel"
	DownloadTimeout   = "download.timeout"
	DownloadUserAgent = "download.user_agent"
)

const NetworkTLSFingerprint = "network.tls_fingerprint"

const HistorySave = "history.save"

const IconsVariant = "icons.variant"

// Logs.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Command line behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	CliFancyPrompt  = "cli.fancy_prompt"
)
