package providers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
	}{
		{"short body kept", "  rate limited  ", len("rate limited")},
		{"ascii cut at limit", strings.Repeat("a", maxErrorBody+10), maxErrorBody + 3},
		// "请求" is 3 bytes per rune; 511 ascii bytes put the limit mid-rune.
		{"multibyte cut on rune boundary", strings.Repeat("a", maxErrorBody-1) + strings.Repeat("请求", 10), maxErrorBody - 1 + 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateBody([]byte(tt.body))
			if !utf8.ValidString(got) {
				t.Errorf("truncateBody() returned invalid UTF-8: %q", got)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}
