package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the VCS revision recorded at compile time, shortened to
// 7 characters.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			rev := setting.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}
			return rev
		}
	}
	return ""
}

// String returns the version, with the revision appended when known.
func String() string {
	version := Version()
	rev := Revision()
	if rev == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, rev)
}
