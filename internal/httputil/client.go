// Package httputil builds the outbound HTTP client used to talk to release
// sources.
package httputil

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// Options configures the outbound client. Zero fields take the values from
// DefaultOptions.
type Options struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// MaxRedirects is the longest redirect chain followed.
	MaxRedirects int

	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// DefaultOptions returns the options used for GitHub API traffic.
func DefaultOptions() Options {
	return Options{
		Timeout:               30 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		MaxRedirects:          5,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
	}
}

// NewClient creates an HTTP client with bounded timeouts whose redirects
// must stay on HTTPS and may not point at private, loopback, link-local,
// multicast or unspecified addresses.
func NewClient(opts Options) *http.Client {
	def := DefaultOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout == 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if opts.ResponseHeaderTimeout == 0 {
		opts.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = def.IdleConnTimeout
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
			ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          opts.MaxIdleConns,
			IdleConnTimeout:       opts.IdleConnTimeout,
		},
		CheckRedirect: redirectPolicy(opts.MaxRedirects, net.LookupIP),
	}
}

func redirectPolicy(maxRedirects int, lookup func(string) ([]net.IP, error)) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", req.URL)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}

		host := req.URL.Hostname()
		if ip := net.ParseIP(host); ip != nil {
			return CheckIP(ip, host)
		}

		// Every address the name resolves to must pass, so a rebinding
		// record cannot slip a private address in.
		ips, err := lookup(host)
		if err != nil {
			return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
		}
		for _, ip := range ips {
			if err := CheckIP(ip, host); err != nil {
				return err
			}
		}
		return nil
	}
}

// CheckIP returns an error if ip is not a public unicast address.
func CheckIP(ip net.IP, host string) error {
	var kind string
	switch {
	case ip.IsPrivate():
		kind = "private"
	case ip.IsLoopback():
		kind = "loopback"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		kind = "link-local"
	case ip.IsMulticast():
		kind = "multicast"
	case ip.IsUnspecified():
		kind = "unspecified"
	default:
		return nil
	}
	return fmt.Errorf("refusing redirect to %s address: %s (%s)", kind, host, ip)
}
