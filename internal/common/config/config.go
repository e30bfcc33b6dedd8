// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig                `mapstructure:"app"`
	API           APIConfig                `mapstructure:"api"`
	Browsers      map[string]BrowserConfig `mapstructure:"browsers"`
	Search        SearchConfig             `mapstructure:"search"`
	Cache         CacheConfig              `mapstructure:"cache"`
	Logging       LoggingConfig            `mapstructure:"logging"`
	Observability ObservabilityConfig      `mapstructure:"observability"`
	Registry      RegistryConfig           `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig locates the remote catalog API. Collection paths are relative
// to BaseURL and keep their trailing slash.
type APIConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	ProgrammesPath   string `mapstructure:"programmes_path"`
	UniversitiesPath string `mapstructure:"universities_path"`
	Timeout          int    `mapstructure:"timeout_ms"` // milliseconds
	PageSize         int    `mapstructure:"page_size"`
	UserAgent        string `mapstructure:"user_agent"`
}

// BrowserConfig holds the settings applicable to every browser.
type BrowserConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Debounce int  `mapstructure:"debounce_ms"` // milliseconds
	PageSize int  `mapstructure:"page_size"`
	Preview  int  `mapstructure:"preview_size"`
}

// SearchConfig selects the backend serving programme listings.
type SearchConfig struct {
	Backend       string              `mapstructure:"backend"` // "api" or "elasticsearch"
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"`
	Index      string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// CacheConfig configures the session response cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl_ms"` // milliseconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig controls metrics and tracing export.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// RegistryConfig points at an optional filter registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
