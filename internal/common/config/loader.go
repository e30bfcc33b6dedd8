// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Browser names used as keys of Config.Browsers.
const (
	BrowserCourses           = "course-browser"
	BrowserUniversities      = "university-browser"
	BrowserProgrammeProfile  = "programme-profile"
	BrowserUniversityProfile = "university-profile"
)

// Load reads .env, config.yaml and config.<APP_ENVIRONMENT>.yaml, then applies
// environment overrides, defaults and validation.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys makes env-only settings visible to Unmarshal, which ignores
// AutomaticEnv for keys absent from every config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.environment",
		"api.base_url",
		"api.programmes_path",
		"api.universities_path",
		"api.timeout_ms",
		"api.page_size",
		"search.backend",
		"search.elasticsearch.url",
		"search.elasticsearch.index",
		"cache.enabled",
		"cache.ttl_ms",
		"cache.redis.address",
		"cache.redis.password",
		"logging.level",
		"logging.format",
		"observability.jaeger_endpoint",
		"registry.path",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "uni-directory"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://127.0.0.1:8000/api"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.ProgrammesPath == "" {
		cfg.API.ProgrammesPath = "/programmes/"
	}
	if cfg.API.UniversitiesPath == "" {
		cfg.API.UniversitiesPath = "/universities/"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10000
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = 10
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = cfg.App.Name
	}

	if cfg.Browsers == nil {
		cfg.Browsers = make(map[string]BrowserConfig)
	}
	for _, name := range []string{BrowserCourses, BrowserUniversities, BrowserProgrammeProfile, BrowserUniversityProfile} {
		if _, ok := cfg.Browsers[name]; !ok {
			cfg.Browsers[name] = BrowserConfig{Enabled: true}
		}
	}
	for key, browser := range cfg.Browsers {
		if browser.Debounce == 0 {
			browser.Debounce = 500
		}
		if browser.PageSize == 0 {
			browser.PageSize = cfg.API.PageSize
		}
		if browser.Preview == 0 {
			browser.Preview = 3
		}
		cfg.Browsers[key] = browser
	}

	if cfg.Search.Backend == "" {
		cfg.Search.Backend = "api"
	}
	if cfg.Search.Elasticsearch.URL == "" && len(cfg.Search.Elasticsearch.Addresses) > 0 {
		cfg.Search.Elasticsearch.URL = cfg.Search.Elasticsearch.Addresses[0]
	}
	if cfg.Search.Elasticsearch.Index == "" {
		cfg.Search.Elasticsearch.Index = "programmes"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 60000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", cfg.API.BaseURL)
	}
	if !strings.HasPrefix(cfg.API.ProgrammesPath, "/") || !strings.HasPrefix(cfg.API.UniversitiesPath, "/") {
		return fmt.Errorf("api collection paths must start with '/'")
	}
	if cfg.API.PageSize < 1 {
		return fmt.Errorf("api.page_size must be positive")
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout_ms must not be negative")
	}

	for name, browser := range cfg.Browsers {
		if browser.Debounce < 0 {
			return fmt.Errorf("browsers.%s.debounce_ms must not be negative", name)
		}
		if browser.PageSize < 1 {
			return fmt.Errorf("browsers.%s.page_size must be positive", name)
		}
	}

	switch cfg.Search.Backend {
	case "api":
	case "elasticsearch":
		if cfg.Search.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("search.elasticsearch.addresses or url is required")
		}
	default:
		return fmt.Errorf("search.backend must be api or elasticsearch, got %q", cfg.Search.Backend)
	}

	if cfg.Cache.Enabled && cfg.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when the cache is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetBrowserConfig retrieves browser-specific configuration with fallback to defaults
func GetBrowserConfig(cfg *Config, name string) BrowserConfig {
	if browser, exists := cfg.Browsers[name]; exists {
		return browser
	}

	pageSize := 10
	if cfg.API.PageSize > 0 {
		pageSize = cfg.API.PageSize
	}
	return BrowserConfig{
		Enabled:  true,
		Debounce: 500,
		PageSize: pageSize,
		Preview:  3,
	}
}

// IsBrowserEnabled checks if a specific browser is enabled
func IsBrowserEnabled(cfg *Config, name string) bool {
	if browser, exists := cfg.Browsers[name]; exists {
		return browser.Enabled
	}
	return true
}

// CollectionURL joins the base URL and a collection path.
func (c APIConfig) CollectionURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
