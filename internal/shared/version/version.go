package version

// Set at build time with -ldflags "-X pyimports/internal/shared/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

func String() string {
	return Version + " (" + Commit + ")"
}
