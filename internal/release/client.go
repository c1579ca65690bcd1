// Package release lists the assets of a project's GitHub release.
//
// It is the transport in front of the asset matcher: Fetch turns a
// repository and version into asset.Candidate values, and reports lookup
// failures as *Error so callers can tell them apart from a release that
// simply has nothing for their platform.
package release

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/buildinfo"
	"github.com/termlibs/termlibs/internal/config"
	"github.com/termlibs/termlibs/internal/httputil"
	"github.com/termlibs/termlibs/internal/log"
)

// Latest is the version keyword that selects the newest published release.
const Latest = "latest"

const (
	// maxCacheEntries bounds the asset cache; half of it is dropped when full
	maxCacheEntries = 1000

	defaultRate  = 10
	defaultBurst = 20
)

// Release is a resolved release and its assets in the order GitHub lists them.
type Release struct {
	Tag        string
	Candidates []asset.Candidate
}

type cacheEntry struct {
	release   *Release
	expiresAt time.Time
}

// Client fetches releases from the GitHub API. It is safe for concurrent
// use. Concurrent fetches of the same release share one API call, and
// results are cached for the configured TTL.
type Client struct {
	gh            *github.Client
	limiter       *rate.Limiter
	logger        log.Logger
	ttl           time.Duration
	timeout       time.Duration
	now           func() time.Time
	authenticated bool

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures a Client.
type Option func(*Client)

// WithGitHubClient replaces the GitHub API client.
func WithGitHubClient(gh *github.Client) Option {
	return func(c *Client) {
		c.gh = gh
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if gh, err := c.gh.WithEnterpriseURLs(baseURL, baseURL); err == nil {
			c.gh = gh
		}
	}
}

// WithCacheTTL sets how long fetched releases are reused. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.ttl = ttl
	}
}

// WithLimiter replaces the outbound request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithNow replaces the clock used for cache expiry.
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client from cfg. A non-empty cfg.GitHubToken authenticates
// requests.
func New(cfg config.Config, opts ...Option) *Client {
	httpClient := httputil.NewClient(httputil.Options{Timeout: cfg.APITimeout})
	authenticated := false
	if cfg.GitHubToken != "" {
		// keep httpClient's timeout and redirect policy
		httpClient.Transport = &oauth2.Transport{
			Base:   httpClient.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}),
		}
		authenticated = true
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = buildinfo.UserAgent()

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = config.DefaultAPITimeout
	}

	c := &Client{
		gh:            gh,
		limiter:       rate.NewLimiter(defaultRate, defaultBurst),
		logger:        log.Default(),
		ttl:           cfg.CacheTTL,
		timeout:       timeout,
		now:           time.Now,
		authenticated: authenticated,
		cache:         make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the release of owner/repo named by version. An empty
// version or "latest" selects the newest release. A tag that does not
// exist is retried with or without its "v" prefix when it is a semantic
// version, since projects disagree on the spelling.
func (c *Client) Fetch(ctx context.Context, owner, repo, version string) (*Release, error) {
	if owner == "" || repo == "" {
		return nil, &Error{Kind: ErrKindInvalid, Repo: owner + "/" + repo, Version: version, Message: "owner and repo must not be empty"}
	}
	version = strings.TrimSpace(version)
	if version == "" || strings.EqualFold(version, Latest) {
		version = Latest
	}

	key := fmt.Sprintf("%s/%s@%s", owner, repo, version)
	if rel, ok := c.cached(key); ok {
		c.logger.Debug("release cache hit", "release", key)
		return rel, nil
	}

	// The shared lookup outlives any one caller: a caller that goes away
	// only stops waiting, it does not cancel the fetch for the others.
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		rel, err := c.fetch(fctx, owner, repo, version)
		if err != nil {
			return nil, err
		}
		c.store(key, rel)
		return rel, nil
	})

	select {
	case <-ctx.Done():
		err := ctx.Err()
		return nil, &Error{Kind: Classify(err), Repo: owner + "/" + repo, Version: version, Message: "stopped waiting for release", Err: err}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("release fetch shared", "release", key)
		}
		return res.Val.(*Release), nil
	}
}

func (c *Client) fetch(ctx context.Context, owner, repo, version string) (*Release, error) {
	if version == Latest {
		return c.get(ctx, owner, repo, version, func(ctx context.Context) (*github.RepositoryRelease, *github.Response, error) {
			return c.gh.Repositories.GetLatestRelease(ctx, owner, repo)
		})
	}

	byTag := func(tag string) func(context.Context) (*github.RepositoryRelease, *github.Response, error) {
		return func(ctx context.Context) (*github.RepositoryRelease, *github.Response, error) {
			return c.gh.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
		}
	}

	rel, err := c.get(ctx, owner, repo, version, byTag(version))
	if err == nil || !IsNotFound(err) {
		return rel, err
	}
	alt, ok := alternateTag(version)
	if !ok {
		return nil, err
	}
	c.logger.Debug("retrying release lookup", "repo", owner+"/"+repo, "tag", version, "alternate", alt)
	rel, altErr := c.get(ctx, owner, repo, alt, byTag(alt))
	if altErr != nil {
		// report the tag the caller asked for
		return nil, err
	}
	return rel, nil
}

func (c *Client) get(ctx context.Context, owner, repo, version string, call func(context.Context) (*github.RepositoryRelease, *github.Response, error)) (*Release, error) {
	fullName := owner + "/" + repo
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: Classify(err), Repo: fullName, Version: version, Message: "request not sent", Err: err}
	}

	start := c.now()
	gr, _, err := call(ctx)
	if err != nil {
		kind := Classify(err)
		msg := "failed to fetch release"
		switch kind {
		case ErrKindNotFound:
			msg = "release not found"
		case ErrKindRateLimit:
			if c.authenticated {
				msg = "GitHub API rate limit exceeded"
			} else {
				msg = "GitHub API rate limit exceeded for unauthenticated requests"
			}
		}
		return nil, &Error{Kind: kind, Repo: fullName, Version: version, Message: msg, Err: err}
	}

	rel := &Release{
		Tag:        gr.GetTagName(),
		Candidates: make([]asset.Candidate, 0, len(gr.Assets)),
	}
	for _, a := range gr.Assets {
		u, err := url.Parse(a.GetBrowserDownloadURL())
		if err != nil || u.Scheme == "" {
			c.logger.Warn("ignoring asset with unusable download URL",
				"repo", fullName, "asset", a.GetName(), "url", a.GetBrowserDownloadURL())
			continue
		}
		size := a.GetSize()
		if size < 0 {
			size = 0
		}
		rel.Candidates = append(rel.Candidates, asset.Candidate{
			Name:        a.GetName(),
			URL:         u,
			ContentType: a.GetContentType(),
			Size:        uint64(size),
			Label:       a.GetLabel(),
		})
	}

	c.logger.Info("fetched release",
		"repo", fullName,
		"version", version,
		"tag", rel.Tag,
		"assets", len(rel.Candidates),
		"duration", c.now().Sub(start))
	return rel, nil
}

// alternateTag returns the other common spelling of a semver tag: "v1.2.3"
// for "1.2.3" and the reverse.
func alternateTag(tag string) (string, bool) {
	if _, err := semver.NewVersion(tag); err != nil {
		return "", false
	}
	if strings.HasPrefix(tag, "v") {
		return strings.TrimPrefix(tag, "v"), true
	}
	return "v" + tag, true
}

func (c *Client) cached(key string) (*Release, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.cache, key)
		return nil, false
	}
	return e.release, true
}

func (c *Client) store(key string, rel *Release) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache) >= maxCacheEntries {
		n := 0
		for k := range c.cache {
			if n >= maxCacheEntries/2 {
				break
			}
			delete(c.cache, k)
			n++
		}
	}
	c.cache[key] = cacheEntry{release: rel, expiresAt: c.now().Add(c.ttl)}
}
