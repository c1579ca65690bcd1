package release

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// ErrorKind classifies release lookup failures.
type ErrorKind int

const (
	// ErrKindUpstream is any failure not covered by a more specific kind
	ErrKindUpstream ErrorKind = iota
	// ErrKindNotFound means the repository, release or tag does not exist
	ErrKindNotFound
	// ErrKindRateLimit means the GitHub API refused the request for quota reasons
	ErrKindRateLimit
	// ErrKindNetwork means the API could not be reached
	ErrKindNetwork
	// ErrKindTimeout means the request did not finish in time
	ErrKindTimeout
	// ErrKindInvalid means the request itself was malformed
	ErrKindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not found"
	case ErrKindRateLimit:
		return "rate limited"
	case ErrKindNetwork:
		return "network"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindInvalid:
		return "invalid request"
	default:
		return "upstream"
	}
}

// Error describes a failed release lookup. It is distinct from a lookup
// that succeeds but yields no usable asset.
type Error struct {
	Kind    ErrorKind
	Repo    string // owner/name
	Version string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("release %s@%s: %s: %v", e.Repo, e.Version, e.Message, e.Err)
	}
	return fmt.Sprintf("release %s@%s: %s", e.Repo, e.Version, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable hint for the error kind, or "".
func (e *Error) Suggestion() string {
	switch e.Kind {
	case ErrKindNotFound:
		return "Check the version tag exists on the project's releases page"
	case ErrKindRateLimit:
		return "Set GITHUB_TOKEN to raise the GitHub API rate limit, or try again later"
	case ErrKindNetwork:
		return "Check that api.github.com is reachable from this host"
	case ErrKindTimeout:
		return "Try again, or raise TERMLIBS_API_TIMEOUT"
	default:
		return ""
	}
}

// Classify returns the most specific ErrorKind for err.
func Classify(err error) ErrorKind {
	var relErr *Error
	if errors.As(err, &relErr) {
		return relErr.Kind
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return ErrKindRateLimit
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return ErrKindRateLimit
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return ErrKindNotFound
		case http.StatusTooManyRequests:
			return ErrKindRateLimit
		case http.StatusUnprocessableEntity, http.StatusBadRequest:
			return ErrKindInvalid
		}
		return ErrKindUpstream
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrKindTimeout
		}
		return ErrKindNetwork
	}

	return ErrKindUpstream
}

// IsNotFound reports whether err is a release lookup that found nothing.
func IsNotFound(err error) bool {
	return err != nil && Classify(err) == ErrKindNotFound
}
