package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/config"
	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/platform"
	"github.com/termlibs/termlibs/internal/release"
	"github.com/termlibs/termlibs/internal/site"
)

type fakeFetcher struct {
	mu    sync.Mutex
	rel   *release.Release
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, owner, repo, version string) (*release.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s/%s@%s", owner, repo, version))
	if f.err != nil {
		return nil, f.err
	}
	return f.rel, nil
}

func candidate(name string, size uint64, contentType string) asset.Candidate {
	u, _ := url.Parse("https://github.com/mikefarah/yq/releases/download/v4.44.3/" + name)
	return asset.Candidate{Name: name, URL: u, Size: size, ContentType: contentType}
}

func yqRelease() *release.Release {
	return &release.Release{
		Tag: "v4.44.3",
		Candidates: []asset.Candidate{
			candidate("checksums", 20000, "text/plain"),
			candidate("yq_darwin_arm64", 9000000, "application/octet-stream"),
			candidate("yq_linux_amd64", 10000000, "application/octet-stream"),
			candidate("yq_linux_amd64.tar.gz", 4000000, "application/gzip"),
			candidate("yq_linux_arm64", 9000000, "application/octet-stream"),
		},
	}
}

func newTestServer(t *testing.T, f *fakeFetcher) *Server {
	t.Helper()
	pages, err := site.New()
	require.NoError(t, err)
	return New(config.Config{MaxConns: 4}, apps.Default(), f, pages, log.NewNoop())
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInstall_Match(t *testing.T) {
	f := &fakeFetcher{rel: yqRelease()}
	s := newTestServer(t, f)

	rec := get(t, s, "/install/yq")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeScript, rec.Header().Get("Content-Type"))
	assert.Equal(t, "yq_linux_amd64", rec.Header().Get(HeaderAsset))
	assert.Empty(t, rec.Header().Get(HeaderMatch))
	body := rec.Body.String()
	assert.Contains(t, body, "URL=https://github.com/mikefarah/yq/releases/download/v4.44.3/yq_linux_amd64\n")
	assert.Contains(t, body, "TARGET=linux-amd64\n")
	assert.Equal(t, []string{"mikefarah/yq@latest"}, f.calls)
}

func TestInstall_QueryOptions(t *testing.T) {
	f := &fakeFetcher{rel: yqRelease()}
	s := newTestServer(t, f)

	rec := get(t, s, "/install/yq?version=v4.44.3&prefix=/opt&os=darwin&arch=arm64")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yq_darwin_arm64", rec.Header().Get(HeaderAsset))
	body := rec.Body.String()
	assert.Contains(t, body, "VERSION=v4.44.3\n")
	assert.Contains(t, body, "PREFIX=/opt\n")
	assert.Contains(t, body, "TARGET=mac-arm64\n")
	assert.Equal(t, []string{"mikefarah/yq@v4.44.3"}, f.calls)
}

func TestInstall_NoMatch(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})

	rec := get(t, s, "/install/yq?os=freebsd")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", rec.Header().Get(HeaderMatch))
	assert.Contains(t, rec.Body.String(), "no asset for $TARGET")
}

func TestInstall_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "unknown app",
			path:       "/install/not-an-app",
			wantStatus: http.StatusNotFound,
			wantBody:   `unknown app "not-an-app"`,
		},
		{
			name:       "unknown os",
			path:       "/install/yq?os=plan9",
			wantStatus: http.StatusBadRequest,
			wantBody:   "unrecognized target",
		},
		{
			name:       "release not found",
			path:       "/install/yq?version=v0.0.0",
			err:        &release.Error{Kind: release.ErrKindNotFound, Repo: "mikefarah/yq", Version: "v0.0.0", Message: "release not found"},
			wantStatus: http.StatusNotFound,
			wantBody:   "releases page",
		},
		{
			name:       "upstream failure",
			path:       "/install/yq",
			err:        &release.Error{Kind: release.ErrKindNetwork, Repo: "mikefarah/yq", Version: "latest", Message: "failed to fetch release"},
			wantStatus: http.StatusBadGateway,
			wantBody:   "failed to fetch release",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeFetcher{rel: yqRelease(), err: tt.err})
			rec := get(t, s, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Empty(t, rec.Header().Get(HeaderMatch))
		})
	}
}

func TestAssets(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})

	rec := get(t, s, "/api/v1/assets/yq?arch=x86_64")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp AssetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "yq", resp.App)
	assert.Equal(t, "latest", resp.Version)
	assert.Equal(t, "v4.44.3", resp.Tag)
	assert.Equal(t, platform.Target{OS: platform.Linux, Arch: platform.Amd64}, resp.Target)
	require.Len(t, resp.Assets, 2)
	assert.Equal(t, "yq_linux_amd64", resp.Assets[0].Name)
	assert.Equal(t, asset.Binary(), resp.Assets[0].Kind)
	assert.Equal(t, "yq_linux_amd64.tar.gz", resp.Assets[1].Name)
	assert.Equal(t, asset.Archive(asset.TarGz), resp.Assets[1].Kind)
	assert.Equal(t, resp.Target, resp.Assets[1].Target)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "linux-amd64", raw["target"])
	archive := raw["assets"].([]any)[1].(map[string]any)
	assert.Equal(t, "tar.gz", archive["kind"])
	assert.Equal(t, "https://github.com/mikefarah/yq/releases/download/v4.44.3/yq_linux_amd64.tar.gz", archive["url"])
}

func TestAssets_Errors(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})

	rec := get(t, s, "/api/v1/assets/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown-app", resp.Code)
}

func TestAssets_EmptyListIsNotNull(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})

	rec := get(t, s, "/api/v1/assets/yq?os=netbsd")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"assets": []`)
}

func TestPages(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeHTML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>termlibs</h1>")

	rec = get(t, s, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")

	rec = get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestGzip(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})
	get(t, s, "/install/yq")
	get(t, s, "/install/yq?os=freebsd")

	rec := get(t, s, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `termlibs_http_requests_total{code="200",route="GET /install/{app}"} 2`)
	assert.Contains(t, body, `termlibs_install_lookups_total{app="yq",outcome="matched"} 1`)
	assert.Contains(t, body, `termlibs_install_lookups_total{app="yq",outcome="none"} 1`)
	assert.Contains(t, body, "termlibs_http_request_duration_seconds")
	assert.Contains(t, body, "termlibs_build_info{")
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{rel: yqRelease()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(url)
	assert.Error(t, err)
}
