// Package version reports build information for the fintrack binary.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X fintrack/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = ""
)

// Info describes the running binary
type Info struct {
	Version  string `json:"version"`
	Built    string `json:"built,omitempty"`
	Go       string `json:"go"`
	Revision string `json:"revision,omitempty"`
	Modified bool   `json:"modified"`
}

// Get collects ldflags values plus the VCS stamp embedded by the Go toolchain
func Get() Info {
	info := Info{Version: Version, Built: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Go = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "vcs.time":
			if info.Built == "" {
				info.Built = s.Value
			}
		}
	}
	return info
}

// ShortRevision returns the first eight characters of the commit hash
func (i Info) ShortRevision() string {
	if len(i.Revision) > 8 {
		return i.Revision[:8]
	}
	return i.Revision
}

// String renders a one-line description, e.g. "fintrack v1.2.0 (3f2a9c1d, go1.25.0)"
func (i Info) String() string {
	var details []string
	if rev := i.ShortRevision(); rev != "" {
		if i.Modified {
			rev += "+dirty"
		}
		details = append(details, rev)
	}
	if i.Built != "" {
		details = append(details, "built "+i.Built)
	}
	if i.Go != "" {
		details = append(details, i.Go)
	}

	s := "fintrack " + i.Version
	if len(details) > 0 {
		s += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}
	return s
}

// Warning returns a note for development or dirty builds, or ""
func (i Info) Warning() string {
	switch {
	case i.Modified:
		return "warning: built from a modified source tree"
	case i.Revision == "" && i.Version == "dev":
		return "warning: development build without version control information"
	}
	return ""
}
