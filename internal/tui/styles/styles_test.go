package styles

import "testing"

func TestStatusColor(t *testing.T) {
	tests := []struct {
		state    string
		expected string
	}{
		{StateOpen, "#10B981"},
		{StateClosing, "#F59E0B"},
		{StateClosed, "#9CA3AF"},
		{"unknown", "#9CA3AF"}, // Should fall back to MutedColor
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := StatusColor(tt.state)
			if string(got) != tt.expected {
				t.Errorf("StatusColor(%q) = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		state    string
		expected string
	}{
		{StateOpen, "●"},
		{StateClosing, "◐"},
		{StateClosed, "○"},
		{"unknown", "●"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			if got := StatusIcon(tt.state); got != tt.expected {
				t.Errorf("StatusIcon(%q) = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}
