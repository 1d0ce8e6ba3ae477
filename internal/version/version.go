package version

// Populated at build time with -ldflags "-X github.com/PizzaHomicide/vplay/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = ""
)

// GetVersion returns the current version of the application
func GetVersion() string {
	return Version
}

// GetBuildTime returns the build time of the binary
func GetBuildTime() string {
	return BuildTime
}

// GetVersionInfo returns a formatted string with version information
func GetVersionInfo() string {
	info := "vplay v" + Version
	if Commit != "" {
		info += " (" + Commit + ")"
	}
	return info + " built " + BuildTime
}
