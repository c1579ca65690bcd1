package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		info     *debug.BuildInfo
		ok       bool
		expected string
	}{
		{
			name:     "no build info",
			expected: "dev",
		},
		{
			name:     "no vcs info returns dev",
			info:     &debug.BuildInfo{},
			ok:       true,
			expected: "dev",
		},
		{
			name: "tagged release",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.2.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123def4567890"},
				},
			},
			ok:       true,
			expected: "v0.2.0",
		},
		{
			name: "devel build truncates revision",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123def4567890"},
					{Key: "vcs.modified", Value: "false"},
				},
			},
			ok:       true,
			expected: "dev-abc123def456",
		},
		{
			name: "dirty build",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			ok:       true,
			expected: "dev-abc123-dirty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.info, tt.ok).String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent(); !strings.HasPrefix(ua, "termlibs/") {
		t.Errorf("UserAgent() = %q, want termlibs/ prefix", ua)
	}
}
