// Package units holds value types shared by the config sections.
package units

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes as a Go duration
// string ("90s", "1m30s") in TOML and YAML files.
type Duration struct {
	time.Duration
}

// Of wraps d.
func Of(d time.Duration) Duration { return Duration{Duration: d} }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// Or returns d, or def when d is not positive.
func (d Duration) Or(def time.Duration) time.Duration {
	if d.Duration <= 0 {
		return def
	}
	return d.Duration
}
