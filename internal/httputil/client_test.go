package httputil

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})

	if client.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.Timeout)
	}
	transport := client.Transport.(*http.Transport)
	if transport.TLSHandshakeTimeout != 10*time.Second {
		t.Errorf("TLSHandshakeTimeout = %v, want 10s", transport.TLSHandshakeTimeout)
	}
	if transport.MaxIdleConns != 32 {
		t.Errorf("MaxIdleConns = %d, want 32", transport.MaxIdleConns)
	}
}

func TestNewClient_CustomTimeout(t *testing.T) {
	client := NewClient(Options{Timeout: 5 * time.Second})
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
}

func TestRedirect_ToHTTPBlocked(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://example.com/plain", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(Options{})
	client.Transport = server.Client().Transport

	resp, err := client.Get(server.URL)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil || !strings.Contains(err.Error(), "non-HTTPS") {
		t.Fatalf("expected non-HTTPS redirect error, got %v", err)
	}
}

func TestRedirect_ToPrivateIPBlocked(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://192.168.1.1/admin", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(Options{})
	client.Transport = server.Client().Transport

	resp, err := client.Get(server.URL)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil || !strings.Contains(err.Error(), "private") {
		t.Fatalf("expected private address error, got %v", err)
	}
}

func TestRedirectPolicy(t *testing.T) {
	lookup := func(host string) ([]net.IP, error) {
		switch host {
		case "objects.githubusercontent.com":
			return []net.IP{net.ParseIP("185.199.108.133")}, nil
		case "rebind.example":
			return []net.IP{net.ParseIP("185.199.108.133"), net.ParseIP("127.0.0.1")}, nil
		}
		return nil, errors.New("no such host")
	}
	check := redirectPolicy(3, lookup)

	tests := []struct {
		name    string
		url     string
		via     int
		wantErr string
	}{
		{"public host", "https://objects.githubusercontent.com/x", 0, ""},
		{"rebinding host", "https://rebind.example/x", 0, "loopback"},
		{"unresolvable", "https://nowhere.example/x", 0, "failed to resolve"},
		{"link-local literal", "https://169.254.169.254/latest", 0, "link-local"},
		{"too many", "https://objects.githubusercontent.com/x", 3, "stopped after 3 redirects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			err := check(req, make([]*http.Request, tt.via))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckIP(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"10.0.0.1", "private"},
		{"172.16.0.1", "private"},
		{"192.168.255.255", "private"},
		{"fd00::1", "private"},
		{"127.0.0.1", "loopback"},
		{"::1", "loopback"},
		{"169.254.169.254", "link-local"},
		{"fe80::1", "link-local"},
		{"224.0.0.1", "link-local"},
		{"239.1.1.1", "multicast"},
		{"0.0.0.0", "unspecified"},
		{"140.82.112.3", ""},
		{"2606:50c0:8000::153", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			err := CheckIP(net.ParseIP(tt.ip), tt.ip)
			if tt.want == "" {
				if err != nil {
					t.Errorf("CheckIP(%s) = %v, want nil", tt.ip, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("CheckIP(%s) = %v, want error containing %q", tt.ip, err, tt.want)
			}
		})
	}
}
