// ABOUTME: Version information for voicedetect binaries
// ABOUTME: Product identity reported by /version, server/hello and the client User-Agent
package version

// Version is stamped at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.1.0"

const (
	Product      = "voicedetect"
	Manufacturer = "voicedetect-go"
)

// UserAgent returns the HTTP User-Agent used by the voicecheck client
func UserAgent() string {
	return Product + "/" + Version
}
