package cmd

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseAppID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"730", 730, false},
		{" 730 ", 730, false},
		{"730-dlc", 730, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAppID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAppID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("parseAppID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestUsageErrorWrapping(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("bad flag")
	wrapped := wrapUsageError(base)
	if !isUsageError(wrapped) {
		t.Fatal("wrapped error should be recognized as a usage error")
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("wrapped error should unwrap to the original")
	}
	if wrapUsageError(nil) != nil {
		t.Fatal("wrapping nil should stay nil")
	}

	if isUsageError(fmt.Errorf("some other failure")) {
		t.Fatal("ordinary errors are not usage errors")
	}
	if !isUsageError(fmt.Errorf("unknown command \"frobnicate\"")) {
		t.Fatal("cobra unknown-command errors are usage errors")
	}
}
