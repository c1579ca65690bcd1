// Package script renders the POSIX shell installer served for an app.
package script

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"

	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/platform"
)

const (
	// DefaultVersion installs the newest release.
	DefaultVersion = "latest"

	// DefaultPrefix is expanded by the script on the client, not by the server.
	DefaultPrefix = "$HOME/.local"
)

//go:embed install.sh.tmpl
var installTemplate string

var tmpl = template.Must(template.New("install.sh").Funcs(template.FuncMap{
	"shq": shellescape.Quote,
}).Parse(installTemplate))

// Options are the user supplied install parameters.
type Options struct {
	App     string
	Version string
	Prefix  string
}

// WithDefaults returns o with empty fields replaced by their defaults.
func (o Options) WithDefaults() Options {
	if strings.TrimSpace(o.Version) == "" {
		o.Version = DefaultVersion
	}
	if strings.TrimSpace(o.Prefix) == "" {
		o.Prefix = DefaultPrefix
	}
	return o
}

// Data is everything the install script template needs.
type Data struct {
	Options
	Target    platform.Target
	Downloads []asset.DownloadInfo
}

// Download is the asset the script installs and how to unpack it.
type Download struct {
	Name   string
	URL    string
	Unpack string
}

// Mode returns the unpack mode the script uses for a file kind, or "" when
// the script cannot install that kind.
func Mode(k asset.FileKind) string {
	switch k.Class {
	case asset.KindBinary, asset.KindUnknown:
		return "binary"
	case asset.KindArchive:
		switch k.Archive {
		case asset.Tar, asset.TarGz, asset.TarBz2, asset.TarXz, asset.Zip, asset.Gzip:
			return k.Archive.String()
		}
	}
	return ""
}

// Pick returns the first download the script knows how to install.
// Binaries and archives win over assets of unknown kind, which are only
// installed as a bare binary when nothing else matched.
func (d Data) Pick() (Download, bool) {
	if dl, ok := d.pick(false); ok {
		return dl, true
	}
	return d.pick(true)
}

func (d Data) pick(allowUnknown bool) (Download, bool) {
	for _, info := range d.Downloads {
		if info.Kind.Class == asset.KindUnknown && !allowUnknown {
			continue
		}
		mode := Mode(info.Kind)
		if mode == "" || info.URL == nil {
			continue
		}
		return Download{Name: info.Name, URL: info.URL.String(), Unpack: mode}, true
	}
	return Download{}, false
}

type view struct {
	Data
	Download Download
	Found    bool
}

// Render writes the install script for data to w. When no download is
// usable the script reports that and exits with status 1.
func Render(w io.Writer, data Data) error {
	data.Options = data.Options.WithDefaults()
	dl, ok := data.Pick()
	if err := tmpl.Execute(w, view{Data: data, Download: dl, Found: ok}); err != nil {
		return fmt.Errorf("failed to render install script for %s: %w", data.App, err)
	}
	return nil
}
