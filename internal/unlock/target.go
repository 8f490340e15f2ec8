package unlock

import (
	"fmt"
	"strings"
)

// Target selects which add-on's directory layout the installer writes.
// The set is closed: exactly two layouts exist.
type Target int

const (
	TargetSteamTools Target = iota
	TargetGreenLuma
)

func (t Target) String() string {
	switch t {
	case TargetSteamTools:
		return "steamtools"
	case TargetGreenLuma:
		return "greenluma"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget maps a --tool flag value onto a Target.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "steamtools", "st":
		return TargetSteamTools, nil
	case "greenluma", "gl":
		return TargetGreenLuma, nil
	default:
		return 0, fmt.Errorf("unknown tool %q (want steamtools or greenluma)", s)
	}
}
