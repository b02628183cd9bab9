package capacity

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// DefaultHoursPerWeek is the ceiling applied when neither the ceilings file
// nor an override names one.
const DefaultHoursPerWeek = 40.0

// Ceilings holds weekly hour ceilings: a default plus per-user values.
//
// The TOML form is:
//
//	default_hours_per_week = 40
//
//	[users]
//	alice = 32
//	bob = 20
type Ceilings struct {
	DefaultHoursPerWeek float64            `toml:"default_hours_per_week" json:"default_hours_per_week"`
	Users               map[string]float64 `toml:"users" json:"users"`
}

// For returns the weekly ceiling for userID. Non-positive values fall back
// to the default so utilization stays finite.
func (c Ceilings) For(userID string) float64 {
	if h, ok := c.Users[userID]; ok && h > 0 {
		return h
	}
	if c.DefaultHoursPerWeek > 0 {
		return c.DefaultHoursPerWeek
	}
	return DefaultHoursPerWeek
}

// WithOverrides returns a copy of c where overrides take precedence over
// the per-user values already present.
func (c Ceilings) WithOverrides(overrides map[string]float64) Ceilings {
	out := Ceilings{
		DefaultHoursPerWeek: c.DefaultHoursPerWeek,
		Users:               make(map[string]float64, len(c.Users)+len(overrides)),
	}
	for u, h := range c.Users {
		out.Users[u] = h
	}
	for u, h := range overrides {
		out.Users[u] = h
	}
	return out
}

// Validate reports negative ceilings.
func (c Ceilings) Validate() error {
	if c.DefaultHoursPerWeek < 0 {
		return fmt.Errorf("default_hours_per_week must not be negative, got %g", c.DefaultHoursPerWeek)
	}
	users := make([]string, 0, len(c.Users))
	for u := range c.Users {
		users = append(users, u)
	}
	sort.Strings(users)
	for _, u := range users {
		if c.Users[u] < 0 {
			return fmt.Errorf("users.%s must not be negative, got %g", u, c.Users[u])
		}
	}
	return nil
}

// LoadCeilings reads ceilings from a TOML file. An empty path yields the
// given default with no per-user values. A default in the file wins over
// defaultHours.
func LoadCeilings(path string, defaultHours float64) (Ceilings, error) {
	c := Ceilings{DefaultHoursPerWeek: defaultHours, Users: map[string]float64{}}
	if path == "" {
		return c, nil
	}
	if _, err := os.Stat(path); err != nil {
		return c, fmt.Errorf("capacity file: %w", err)
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("parse capacity file %s: %w", path, err)
	}
	if c.Users == nil {
		c.Users = map[string]float64{}
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("capacity file %s: %w", path, err)
	}
	return c, nil
}
