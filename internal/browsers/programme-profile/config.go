// internal/browsers/programme-profile/config.go
package programmeprofile

import (
	"time"

	"uni-directory/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// UniversitiesPath is the listing a "view university" link points at.
	UniversitiesPath string
	WebsiteSuffix    string
}

func LoadConfig(api config.APIConfig) *Config {
	cfg := &Config{
		Timeout:          30 * time.Second,
		UniversitiesPath: "/universities",
		WebsiteSuffix:    ".ac.tz",
	}
	if api.Timeout > 0 {
		cfg.Timeout = config.GetDuration(api.Timeout)
	}
	return cfg
}
