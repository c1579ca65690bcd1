// Package platform classifies release asset filenames by operating system
// and CPU architecture.
//
// Classification is a pure function of the filename. Every input yields a
// value; names that carry no recognizable marker classify as UnknownOS or
// UnknownArch rather than failing.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Target is the (operating system, architecture) pair a user wants to
// install for. Targets are comparable with ==; unknown only equals unknown.
type Target struct {
	OS   OS
	Arch Arch
}

// DefaultTarget returns the target used when the caller has not stated one.
func DefaultTarget() Target {
	return Target{OS: Linux, Arch: Amd64}
}

// Identify classifies a filename's operating system and architecture. The
// two classifiers run independently of each other.
func Identify(filename string) Target {
	return Target{
		OS:   ClassifyOS(filename),
		Arch: ClassifyArch(filename),
	}
}

// IsUnknown reports whether either half of the target could not be determined.
func (t Target) IsUnknown() bool {
	return t.OS == UnknownOS || t.Arch == UnknownArch
}

// String renders the target as "{os}-{arch}", e.g. "linux-amd64".
func (t Target) String() string {
	return t.OS.String() + "-" + t.Arch.String()
}

// MarshalText encodes the target in its String form.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes the String form. The text is split on its last "-"
// and each half goes through the classifiers, so "unknown-unknown" and
// "mac-aarch64" decode back to the targets that produced them.
func (t *Target) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("invalid target %q: want {os}-{arch}", text)
	}
	*t = Target{OS: ClassifyOS(s[:i]), Arch: ClassifyArch(s[i+1:])}
	return nil
}

// ParseTarget builds a target from user supplied os and arch values such as
// the ones in an install request's query string. Values go through the same
// classifiers as filenames, so "darwin" and "x86_64" are accepted. An empty
// value takes the matching field of DefaultTarget. The result can still be
// unknown when a value is given but unrecognized.
func ParseTarget(osName, archName string) Target {
	t := DefaultTarget()
	if osName = strings.TrimSpace(osName); osName != "" {
		t.OS = ClassifyOS(osName)
	}
	if archName = strings.TrimSpace(archName); archName != "" {
		t.Arch = ClassifyArch(strings.ToLower(archName))
	}
	return t
}

// HostTarget returns the target of the running process. Go spells the host
// as GOOS/GOARCH ("darwin", "386"), which the classifiers already
// understand. Anything they do not recognize falls back to DefaultTarget.
func HostTarget() Target {
	t := hostTarget(runtime.GOOS, runtime.GOARCH)
	if t.IsUnknown() {
		return DefaultTarget()
	}
	return t
}

func hostTarget(goos, goarch string) Target {
	return Target{
		OS:   ClassifyOS(goos),
		Arch: ClassifyArch(goarch),
	}
}
