// internal/browsers/university-profile/config.go
package universityprofile

import (
	"time"

	"uni-directory/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	PreviewSize int
	// CoursesPath is the listing a "browse all programmes" link points at.
	CoursesPath string
}

func LoadConfig(api config.APIConfig, browser config.BrowserConfig) *Config {
	cfg := &Config{
		Timeout:     30 * time.Second,
		PreviewSize: 3,
		CoursesPath: "/courses",
	}
	if api.Timeout > 0 {
		cfg.Timeout = config.GetDuration(api.Timeout)
	}
	if browser.Preview > 0 {
		cfg.PreviewSize = browser.Preview
	}
	return cfg
}
