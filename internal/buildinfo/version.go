// Package buildinfo reports the termlibs build from Go build metadata.
package buildinfo

import (
	"runtime/debug"
)

// Info describes the running binary.
type Info struct {
	// Version is the module version for tagged installs, "" otherwise.
	Version   string
	Revision  string
	Dirty     bool
	GoVersion string
}

// Read returns the build info of the running binary.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	return fromBuildInfo(bi, ok)
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool) Info {
	if !ok || bi == nil {
		return Info{}
	}
	info := Info{GoVersion: bi.GoVersion}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String renders the tag of a release build, "dev-<hash>[-dirty]" for a
// development build with VCS info, or "dev".
func (i Info) String() string {
	if i.Version != "" {
		return i.Version
	}
	if i.Revision == "" {
		return "dev"
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "dev-" + rev
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// UserAgent is the User-Agent sent to release sources.
func UserAgent() string {
	return "termlibs/" + Read().String()
}
