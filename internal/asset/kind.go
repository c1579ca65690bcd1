// Package asset classifies release assets and selects the ones to offer
// for a target platform.
//
// Everything in this package is pure: classification derives values from a
// filename alone, and Match only reads its arguments. It never performs I/O
// and has no error path. An empty match is a normal answer.
package asset

import (
	"fmt"
	"strings"
)

// Extensions returns the dot separated suffix tokens of a filename, without
// the leading base name. Empty tokens and tokens longer than four characters
// are dropped, which is only a rough approximation of "looks like a real
// extension": "tool-v1.2.3-linux" yields ["2"].
func Extensions(filename string) []string {
	parts := strings.Split(filename, ".")
	var exts []string
	for _, p := range parts[1:] {
		if p != "" && len(p) <= 4 {
			exts = append(exts, p)
		}
	}
	return exts
}

func lastExtension(filename string) (string, bool) {
	exts := Extensions(filename)
	if len(exts) == 0 {
		return "", false
	}
	return exts[len(exts)-1], true
}

// ArchiveKind is an archive or compression container format.
type ArchiveKind int

const (
	NoArchive ArchiveKind = iota
	Tar
	TarGz
	TarBz2
	TarXz
	SevenZip
	Zip
	Rar
	Gzip
)

func (k ArchiveKind) String() string {
	switch k {
	case Tar:
		return "tar"
	case TarGz:
		return "tar.gz"
	case TarBz2:
		return "tar.bz2"
	case TarXz:
		return "tar.xz"
	case SevenZip:
		return "7z"
	case Zip:
		return "zip"
	case Rar:
		return "rar"
	case Gzip:
		return "gz"
	default:
		return ""
	}
}

var archiveRules = []struct {
	suffixes []string
	kind     ArchiveKind
}{
	{[]string{"tar"}, Tar},
	{[]string{"tar.gz", "tgz"}, TarGz},
	{[]string{"tar.bz2"}, TarBz2},
	{[]string{"tar.xz"}, TarXz},
	{[]string{"7z"}, SevenZip},
	{[]string{"zip"}, Zip},
	{[]string{"rar"}, Rar},
	// plain gz last, it is the tail of tar.gz
	{[]string{"gz"}, Gzip},
}

// IdentifyArchive reports the archive format a filename ends with.
func IdentifyArchive(filename string) (ArchiveKind, bool) {
	for _, r := range archiveRules {
		for _, s := range r.suffixes {
			if strings.HasSuffix(filename, s) {
				return r.kind, true
			}
		}
	}
	return NoArchive, false
}

// InstallerKind is a platform installer package format.
type InstallerKind int

const (
	NoInstaller InstallerKind = iota
	Msi
	Exe
	Deb
	Rpm
	Pkg
)

func (k InstallerKind) String() string {
	switch k {
	case Msi:
		return "msi"
	case Exe:
		return "exe"
	case Deb:
		return "deb"
	case Rpm:
		return "rpm"
	case Pkg:
		return "pkg"
	default:
		return ""
	}
}

var installerExtensions = map[string]InstallerKind{
	"msi": Msi,
	"exe": Exe,
	"deb": Deb,
	"rpm": Rpm,
	"pkg": Pkg,
}

// IdentifyInstaller reports the installer format named by the filename's
// last extension token.
func IdentifyInstaller(filename string) (InstallerKind, bool) {
	ext, ok := lastExtension(filename)
	if !ok {
		return NoInstaller, false
	}
	k, ok := installerExtensions[ext]
	return k, ok
}

// KindClass discriminates the variants of FileKind.
type KindClass int

const (
	KindUnknown KindClass = iota
	KindBinary
	KindArchive
	KindInstaller
)

// FileKind is the packaging format of an asset: a bare binary, an archive,
// an installer or unknown. Archive is only set for KindArchive and
// Installer only for KindInstaller. FileKind values are comparable.
type FileKind struct {
	Class     KindClass
	Archive   ArchiveKind
	Installer InstallerKind
}

func Binary() FileKind                   { return FileKind{Class: KindBinary} }
func Unknown() FileKind                  { return FileKind{Class: KindUnknown} }
func Archive(k ArchiveKind) FileKind     { return FileKind{Class: KindArchive, Archive: k} }
func Installer(k InstallerKind) FileKind { return FileKind{Class: KindInstaller, Installer: k} }

// String renders "binary", the archive name ("tar.gz"), "<name> installer"
// or "unknown".
func (k FileKind) String() string {
	switch k.Class {
	case KindBinary:
		return "binary"
	case KindArchive:
		return k.Archive.String()
	case KindInstaller:
		return k.Installer.String() + " installer"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind the same way String does.
func (k FileKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the String form back into a FileKind.
func (k *FileKind) UnmarshalText(text []byte) error {
	s := string(text)
	switch s {
	case "binary":
		*k = Binary()
		return nil
	case "unknown":
		*k = Unknown()
		return nil
	}
	if name, ok := strings.CutSuffix(s, " installer"); ok {
		for i := Msi; i <= Pkg; i++ {
			if i.String() == name {
				*k = Installer(i)
				return nil
			}
		}
	}
	for a := Tar; a <= Gzip; a++ {
		if a.String() == s {
			*k = Archive(a)
			return nil
		}
	}
	return fmt.Errorf("unknown file kind %q", s)
}

// IdentifyKind classifies a filename. Archive suffixes are tried first,
// then installer extensions. A name with no extension tokens at all is
// taken to be a bare binary.
func IdentifyKind(filename string) FileKind {
	if k, ok := IdentifyArchive(filename); ok {
		return Archive(k)
	}
	if k, ok := IdentifyInstaller(filename); ok {
		return Installer(k)
	}
	ext, ok := lastExtension(filename)
	if !ok || ext == "exe" {
		return Binary()
	}
	return Unknown()
}
