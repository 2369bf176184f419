package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for fatal problems and returns
// non-fatal warnings for settings that are legal but probably unintended.
func (c *Config) Validate() (warnings []string, err error) {
	if strings.TrimSpace(c.UserAgent) == "" {
		return warnings, fmt.Errorf("user_agent must not be empty")
	}
	if c.MaxDepth < 0 {
		return warnings, fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxPages < 0 {
		return warnings, fmt.Errorf("max_pages must be >= 0, got %d", c.MaxPages)
	}
	if c.MaxConcurrentRequests < 1 {
		return warnings, fmt.Errorf("max_concurrent_requests must be >= 1, got %d", c.MaxConcurrentRequests)
	}
	if c.RateLimitWait < 0 {
		return warnings, fmt.Errorf("rate_limit_wait must be >= 0, got %v", c.RateLimitWait)
	}
	for _, m := range c.AllowedMIMEs {
		if !strings.Contains(m, "/") {
			return warnings, fmt.Errorf("allowed_mimes entry %q is not a type/subtype media type", m)
		}
	}

	if c.MaxPages == 0 {
		warnings = append(warnings, "max_pages is 0: the crawl will fetch nothing")
	}
	if c.MaxDepth == 0 {
		warnings = append(warnings, "max_depth is 0: only the seed URL will be fetched")
	}
	if c.RateLimitWait == 0 {
		warnings = append(warnings, "rate_limit_wait is 0: no default politeness delay between same-domain requests")
	}

	return warnings, nil
}
