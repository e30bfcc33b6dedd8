// internal/browsers/course-browser/config.go
package coursebrowser

import (
	"time"

	"uni-directory/internal/common/config"
)

type Config struct {
	Debounce time.Duration
	PageSize int
	// SettleTimeout bounds how long the interactive loop waits for a
	// listing to finish loading before printing it anyway.
	SettleTimeout time.Duration
}

func LoadConfig(browser config.BrowserConfig) *Config {
	cfg := &Config{
		Debounce:      500 * time.Millisecond,
		PageSize:      10,
		SettleTimeout: 15 * time.Second,
	}
	if browser.Debounce > 0 {
		cfg.Debounce = config.GetDuration(browser.Debounce)
	}
	if browser.PageSize > 0 {
		cfg.PageSize = browser.PageSize
	}
	return cfg
}
