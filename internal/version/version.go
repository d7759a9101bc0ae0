package version

// Version is the current version of the trading bot.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/econicmedia/bot-sub001/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v0.4.0"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}
