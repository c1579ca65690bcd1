package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/platform"
	"github.com/termlibs/termlibs/internal/release"
	"github.com/termlibs/termlibs/internal/script"
	"github.com/termlibs/termlibs/internal/site"
)

const (
	contentTypeScript = "text/x-shellscript; charset=utf-8"
	contentTypeHTML   = "text/html; charset=utf-8"

	// HeaderMatch is "none" when the install script has nothing to install.
	HeaderMatch = "X-Termlibs-Match"
	// HeaderAsset names the asset the install script downloads.
	HeaderAsset = "X-Termlibs-Asset"
)

// lookupError is a failed lookup and the response it maps to.
type lookupError struct {
	status int
	code   string
	msg    string
}

type resolved struct {
	opts      script.Options
	target    platform.Target
	tag       string
	downloads []asset.DownloadInfo
}

// resolve runs the lookup shared by the install and asset endpoints: app,
// requested target, release and match.
func (s *Server) resolve(r *http.Request) (*resolved, *lookupError) {
	name := r.PathValue("app")
	q := r.URL.Query()

	app, err := s.registry.Lookup(name)
	if err != nil {
		return nil, &lookupError{http.StatusNotFound, "unknown-app", fmt.Sprintf("unknown app %q", name)}
	}
	owner, repo, err := app.GitHubRepo()
	if err != nil {
		return nil, &lookupError{http.StatusNotImplemented, "unsupported-source",
			fmt.Sprintf("app %s is published on %s; only github releases are supported", app.Name, app.Source)}
	}

	target := platform.ParseTarget(q.Get("os"), q.Get("arch"))
	if target.IsUnknown() {
		return nil, &lookupError{http.StatusBadRequest, "unknown-target",
			fmt.Sprintf("unrecognized target os=%q arch=%q", q.Get("os"), q.Get("arch"))}
	}

	opts := script.Options{App: app.Name, Version: q.Get("version"), Prefix: q.Get("prefix")}.WithDefaults()
	rel, err := s.fetcher.Fetch(r.Context(), owner, repo, opts.Version)
	if err != nil {
		s.metrics.installs.WithLabelValues(app.Name, outcomeError).Inc()
		s.logger.Warn("release lookup failed", "app", app.Name, "version", opts.Version, "error", err)
		le := &lookupError{http.StatusBadGateway, "upstream", err.Error()}
		if release.IsNotFound(err) {
			le.status, le.code = http.StatusNotFound, "release-not-found"
		}
		var relErr *release.Error
		if errors.As(err, &relErr) {
			if hint := relErr.Suggestion(); hint != "" {
				le.msg += "\n" + hint
			}
		}
		return nil, le
	}

	return &resolved{
		opts:      opts,
		target:    target,
		tag:       rel.Tag,
		downloads: s.matcher.Match(rel.Candidates, target),
	}, nil
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	res, le := s.resolve(r)
	if le != nil {
		http.Error(w, le.msg, le.status)
		return
	}

	data := script.Data{Options: res.opts, Target: res.target, Downloads: res.downloads}
	var buf bytes.Buffer
	if err := script.Render(&buf, data); err != nil {
		s.logger.Error("rendering install script", "app", res.opts.App, "error", err)
		http.Error(w, "failed to render install script", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeScript)
	if dl, ok := data.Pick(); ok {
		s.metrics.installs.WithLabelValues(res.opts.App, outcomeMatched).Inc()
		w.Header().Set(HeaderAsset, dl.Name)
	} else {
		s.metrics.installs.WithLabelValues(res.opts.App, outcomeNone).Inc()
		w.Header().Set(HeaderMatch, "none")
	}
	_, _ = w.Write(buf.Bytes())
}

// AssetJSON is one matched asset in the API response.
type AssetJSON struct {
	Name        string          `json:"name"`
	Label       string          `json:"label,omitempty"`
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	Size        uint64          `json:"size"`
	Target      platform.Target `json:"target"`
	Kind        asset.FileKind  `json:"kind"`
}

// AssetsResponse is the body of GET /api/v1/assets/{app}.
type AssetsResponse struct {
	App     string          `json:"app"`
	Version string          `json:"version"`
	Tag     string          `json:"tag"`
	Target  platform.Target `json:"target"`
	Assets  []AssetJSON     `json:"assets"`
}

// ErrorResponse is the body of a failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	res, le := s.resolve(r)
	if le != nil {
		writeJSON(w, le.status, ErrorResponse{Code: le.code, Message: le.msg})
		return
	}

	outcome := outcomeMatched
	if len(res.downloads) == 0 {
		outcome = outcomeNone
	}
	s.metrics.installs.WithLabelValues(res.opts.App, outcome).Inc()

	resp := AssetsResponse{
		App:     res.opts.App,
		Version: res.opts.Version,
		Tag:     res.tag,
		Target:  res.target,
		Assets:  make([]AssetJSON, 0, len(res.downloads)),
	}
	for _, d := range res.downloads {
		a := AssetJSON{
			Name:        d.Name,
			Label:       d.Label,
			ContentType: d.ContentType,
			Size:        d.Size,
			Target:      d.Target,
			Kind:        d.Kind,
		}
		if d.URL != nil {
			a.URL = d.URL.String()
		}
		resp.Assets = append(resp.Assets, a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, site.IndexPage, http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, site.NotFoundPage, http.StatusNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writePage(w http.ResponseWriter, name string, status int) {
	var page []byte
	if s.pages != nil {
		page, _ = s.pages.Page(name)
	}
	if page == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write(page)
}

var _ Fetcher = (*release.Client)(nil)
