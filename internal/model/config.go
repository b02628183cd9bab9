package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CapacityNamespace holds per-user weekly capacity overrides, keyed
// "capacity:<user>".
const CapacityNamespace = "capacity"

// Config is a namespaced key-value record stored as JSONB.
type Config struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CapacityOverride is the value stored under a capacity config key.
type CapacityOverride struct {
	HoursPerWeek float64 `json:"hours_per_week"`
}

// NewCapacityConfig builds the config record overriding userID's weekly
// capacity.
func NewCapacityConfig(userID string, hoursPerWeek float64, at time.Time) (*Config, error) {
	value, err := json.Marshal(CapacityOverride{HoursPerWeek: hoursPerWeek})
	if err != nil {
		return nil, fmt.Errorf("encoding capacity override for %s: %w", userID, err)
	}
	return &Config{
		Key:       CapacityNamespace + ":" + userID,
		Value:     value,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// CapacityOverride decodes c as a capacity override and returns the user it
// applies to. It fails for keys outside the capacity namespace.
func (c *Config) CapacityOverride() (string, float64, error) {
	user, ok := strings.CutPrefix(c.Key, CapacityNamespace+":")
	if !ok || user == "" {
		return "", 0, fmt.Errorf("config %q is not a capacity override", c.Key)
	}
	var o CapacityOverride
	if err := json.Unmarshal(c.Value, &o); err != nil {
		return "", 0, fmt.Errorf("config %q: %w", c.Key, err)
	}
	return user, o.HoursPerWeek, nil
}
