package asset

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/platform"
)

// MinSize is the byte floor an asset must exceed to be offered. It keeps out
// checksum and signature files that slip past the extension skip-list.
const MinSize = 64 * 1024

// skipExtensions lists suffixes of checksum, signature and readme artifacts.
var skipExtensions = []string{".asc", ".md5", ".sha1", ".sha256", ".sha512", ".sig", ".txt"}

// skipMimeTypes lists content type essences that are never offered.
var skipMimeTypes = []string{"text/plain"}

// Candidate is a release asset as listed by the release source.
type Candidate struct {
	Name        string
	URL         *url.URL
	ContentType string
	Size        uint64
	Label       string
}

// DownloadInfo is a classified candidate.
type DownloadInfo struct {
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	URL         *url.URL        `json:"-"`
	ContentType string          `json:"content_type"`
	Size        uint64          `json:"size"`
	Target      platform.Target `json:"target"`
	Kind        FileKind        `json:"kind"`
}

// Classify derives the target and file kind of a candidate from its name.
func Classify(c Candidate) DownloadInfo {
	return DownloadInfo{
		Name:        c.Name,
		Label:       c.Label,
		URL:         c.URL,
		ContentType: c.ContentType,
		Size:        c.Size,
		Target:      platform.Identify(c.Name),
		Kind:        IdentifyKind(c.Name),
	}
}

func (d DownloadInfo) String() string {
	u := ""
	if d.URL != nil {
		u = d.URL.String()
	}
	return fmt.Sprintf("[%s](%s) for %s as a %s", d.Name, u, d.Target, d.Kind)
}

// SkipReason is a set of reasons an asset is not offered. The zero value
// means the asset is kept.
type SkipReason uint8

const (
	SkipTarget SkipReason = 1 << iota
	SkipExtension
	SkipSize
	SkipMimeType
)

func (r SkipReason) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for _, s := range []struct {
		bit  SkipReason
		name string
	}{
		{SkipTarget, "target"},
		{SkipExtension, "extension"},
		{SkipSize, "size"},
		{SkipMimeType, "mimetype"},
	} {
		if r&s.bit != 0 {
			parts = append(parts, s.name)
		}
	}
	return strings.Join(parts, ",")
}

// Has reports whether every bit of reason is set in r.
func (r SkipReason) Has(reason SkipReason) bool {
	return r&reason == reason
}

// Evaluate returns every predicate info fails against desired. All of them
// are computed, not just the first, so logs can report the full picture.
func Evaluate(info DownloadInfo, desired platform.Target) SkipReason {
	var r SkipReason
	if info.Target != desired {
		r |= SkipTarget
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(info.Name, ext) {
			r |= SkipExtension
			break
		}
	}
	if info.Size <= MinSize {
		r |= SkipSize
	}
	essence := mimeEssence(info.ContentType)
	for _, m := range skipMimeTypes {
		if essence == m {
			r |= SkipMimeType
			break
		}
	}
	return r
}

// mimeEssence returns the type/subtype of a content type without its
// parameters.
func mimeEssence(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	essence, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(essence))
}

// Matcher selects the assets to offer for a target.
type Matcher struct {
	logger log.Logger
}

// NewMatcher creates a Matcher logging its decisions to logger. A nil
// logger discards them.
func NewMatcher(logger log.Logger) *Matcher {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Matcher{logger: logger}
}

// Match classifies every candidate and keeps the ones built for desired
// that are not checksum/signature artifacts, are larger than MinSize, and
// are not served as text/plain. Input order is preserved. Skipped assets are
// logged at debug level with their reasons; they are not errors.
func (m *Matcher) Match(candidates []Candidate, desired platform.Target) []DownloadInfo {
	matched := make([]DownloadInfo, 0, len(candidates))
	for _, c := range candidates {
		info := Classify(c)
		reason := Evaluate(info, desired)
		if reason == 0 {
			m.logger.Debug("matched asset",
				"name", info.Name,
				"kind", info.Kind,
				"content_type", info.ContentType,
				"size", info.Size,
				"target", info.Target)
			matched = append(matched, info)
			continue
		}
		m.logger.Debug("skipped asset",
			"name", info.Name,
			"kind", info.Kind,
			"content_type", info.ContentType,
			"size", info.Size,
			"target", info.Target,
			"desired", desired,
			"reason", reason)
	}
	return matched
}

// Match runs a Matcher that logs to log.Default.
func Match(candidates []Candidate, desired platform.Target) []DownloadInfo {
	return NewMatcher(log.Default()).Match(candidates, desired)
}
