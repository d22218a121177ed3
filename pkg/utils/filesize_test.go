package utils

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"negative", -5, "0 B"},
		{"bytes", 512, "512 B"},
		{"one KB", 1024, "1.00 KB"},
		{"fractional KB", 1536, "1.50 KB"},
		{"MB", 12_939_428, "12.34 MB"},
		{"GB", 3 * GB, "3.00 GB"},
		{"TB", 2 * TB, "2.00 TB"},
		{"clamped to TB", 2048 * TB, "2048.00 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.input); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
