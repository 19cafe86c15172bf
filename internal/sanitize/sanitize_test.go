package sanitize

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		contains  []string
		forbidden []string
	}{
		{
			name:      "script removed",
			input:     `<p>Audit plan</p><script>alert(1)</script>`,
			contains:  []string{"<p>Audit plan</p>"},
			forbidden: []string{"<script", "alert(1)"},
		},
		{
			name:      "event handler removed",
			input:     `<p onclick="steal()">Scope</p>`,
			contains:  []string{"<p>Scope</p>"},
			forbidden: []string{"onclick"},
		},
		{
			name:      "javascript url removed",
			input:     `<a href="javascript:steal()">click</a>`,
			forbidden: []string{"javascript:"},
		},
		{
			name:     "tables kept",
			input:    `<table><tr><td colspan="2">ISO 9001</td></tr></table>`,
			contains: []string{"<table>", `colspan="2"`, "ISO 9001"},
		},
		{
			name:     "external links hardened",
			input:    `<a href="https://example.com/procedure">procedure</a>`,
			contains: []string{`target="_blank"`, "noreferrer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTML(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("HTML(%q) = %q, want it to contain %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.forbidden {
				if strings.Contains(got, bad) {
					t.Errorf("HTML(%q) = %q, must not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Annual review  ", "Annual review"},
		{"<b>Annual</b> review", "Annual review"},
		{`<img src=x onerror=alert(1)>Report`, "Report"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Text(tt.input); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
