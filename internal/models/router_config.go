package models

import "time"

// ConfigKeyFallbackURL is the router_config key holding the fallback landing page URL.
const ConfigKeyFallbackURL = "fallback_url"

// RouterConfig is a generic key-value setting.
type RouterConfig struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
