package version

// version is set at build time via -ldflags "-X github.com/cbodonnell/tabletop/pkg/version.version=..."
var version = "dev"

// Get returns the version of the build.
func Get() string {
	return version
}
