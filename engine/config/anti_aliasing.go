package config

import (
	"fmt"
	"strings"
)

// AntiAliasingMode selects the multisample count of the scene target.
type AntiAliasingMode int

const (
	AntiAliasingDisabled AntiAliasingMode = iota
	AntiAliasingMSAA2
	AntiAliasingMSAA4
	AntiAliasingMSAA8
	AntiAliasingMSAA16
)

var antiAliasingNames = [...]string{"disabled", "msaa2", "msaa4", "msaa8", "msaa16"}

// Samples returns the requested sample count, 1 when disabled.
func (m AntiAliasingMode) Samples() uint32 {
	switch m {
	case AntiAliasingMSAA2:
		return 2
	case AntiAliasingMSAA4:
		return 4
	case AntiAliasingMSAA8:
		return 8
	case AntiAliasingMSAA16:
		return 16
	default:
		return 1
	}
}

// Enabled reports whether the mode requests multisampling.
func (m AntiAliasingMode) Enabled() bool {
	return m.Samples() > 1
}

func (m AntiAliasingMode) String() string {
	if m < 0 || int(m) >= len(antiAliasingNames) {
		return fmt.Sprintf("AntiAliasingMode(%d)", int(m))
	}
	return antiAliasingNames[m]
}

func (m AntiAliasingMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(antiAliasingNames) {
		return nil, fmt.Errorf("invalid anti-aliasing mode %d", int(m))
	}
	return []byte(antiAliasingNames[m]), nil
}

func (m *AntiAliasingMode) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range antiAliasingNames {
		if n == name {
			*m = AntiAliasingMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown anti-aliasing mode %q", string(text))
}
