// internal/browsers/university-browser/config.go
package universitybrowser

import (
	"time"

	"uni-directory/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(api config.APIConfig) *Config {
	cfg := &Config{Timeout: 30 * time.Second}
	if api.Timeout > 0 {
		cfg.Timeout = config.GetDuration(api.Timeout)
	}
	return cfg
}
