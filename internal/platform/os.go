package platform

import "strings"

// OS identifies the operating system a release asset was built for.
type OS int

const (
	UnknownOS OS = iota
	Windows
	Linux
	Mac
	FreeBSD
	OpenBSD
	NetBSD
)

func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case Linux:
		return "linux"
	case Mac:
		return "mac"
	case FreeBSD:
		return "freebsd"
	case OpenBSD:
		return "openbsd"
	case NetBSD:
		return "netbsd"
	default:
		return "unknown"
	}
}

// osRule maps a set of substring markers to an operating system.
type osRule struct {
	markers []string
	os      OS
}

// osRules is evaluated top to bottom and the first hit wins.
// Mac must come before Windows: "darwin" contains "win".
var osRules = []osRule{
	{markers: []string{"freebsd"}, os: FreeBSD},
	{markers: []string{"openbsd"}, os: OpenBSD},
	{markers: []string{"netbsd"}, os: NetBSD},
	{markers: []string{"mac", "macos", "macosx", "darwin"}, os: Mac},
	{markers: []string{"win", "windows"}, os: Windows},
	{markers: []string{"linux"}, os: Linux},
}

// ClassifyOS derives the operating system from a filename. The input is
// lower-cased before matching. Markers match anywhere in the name, so
// "winter_report" is classified as Windows.
func ClassifyOS(filename string) OS {
	name := strings.ToLower(filename)
	for _, r := range osRules {
		if containsAny(name, r.markers) {
			return r.os
		}
	}
	return UnknownOS
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
