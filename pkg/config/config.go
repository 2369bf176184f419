package config

import "time"

// Defaults applied by New for every field left untouched by an Option.
const (
	DefaultUserAgent             = "CrawlyCrawler"
	DefaultMaxDepth              = 5
	DefaultMaxPages              = 15
	DefaultMaxConcurrentRequests = 1000
	DefaultRateLimitWait         = 1 * time.Second
)

// Config holds the settings for one crawl run. It is built once (New plus
// Options, or New then a YAML unmarshal for the CLI) and treated as
// read-only afterwards; every component receives the same instance.
type Config struct {
	UserAgent             string        `yaml:"user_agent,omitempty"`
	MaxDepth              int           `yaml:"max_depth,omitempty"`
	MaxPages              int           `yaml:"max_pages,omitempty"`
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests,omitempty"`
	RateLimitWait         time.Duration `yaml:"rate_limit_wait,omitempty"`
	RespectRobots         bool          `yaml:"respect_robots"`
	// AllowedMIMEs restricts stored pages to the listed media types
	// (sniffed from the payload). Empty means no filtering.
	AllowedMIMEs []string         `yaml:"allowed_mimes,omitempty"`
	HTTPClient   HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`
}

// Option mutates a Config during construction.
type Option func(*Config)

// New returns a Config with all defaults applied, then the given options.
func New(opts ...Option) *Config {
	cfg := &Config{
		UserAgent:             DefaultUserAgent,
		MaxDepth:              DefaultMaxDepth,
		MaxPages:              DefaultMaxPages,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		RateLimitWait:         DefaultRateLimitWait,
		RespectRobots:         true,
		HTTPClient: HTTPClientConfig{
			Timeout:             30 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DialerTimeout:       10 * time.Second,
			DialerKeepAlive:     30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithUserAgent sets the User-Agent header for all requests of the run.
func WithUserAgent(agent string) Option {
	return func(c *Config) { c.UserAgent = agent }
}

// WithMaxDepth sets the maximum recursion depth (0 crawls only the seed).
func WithMaxDepth(depth int) Option {
	return func(c *Config) { c.MaxDepth = depth }
}

// WithMaxPages sets the page-count ceiling for the run.
func WithMaxPages(pages int) Option {
	return func(c *Config) { c.MaxPages = pages }
}

// WithMaxConcurrentRequests sets the number of simultaneous fetch permits.
func WithMaxConcurrentRequests(n int) Option {
	return func(c *Config) { c.MaxConcurrentRequests = n }
}

// WithRateLimitWait sets the per-domain delay used when a robots.txt
// declares no Crawl-delay, or for every request when robots handling is
// disabled.
func WithRateLimitWait(d time.Duration) Option {
	return func(c *Config) { c.RateLimitWait = d }
}

// WithRespectRobots enables or disables robots.txt handling.
func WithRespectRobots(respect bool) Option {
	return func(c *Config) { c.RespectRobots = respect }
}

// WithAllowedMIMEs restricts stored content to the given media types.
func WithAllowedMIMEs(mimes ...string) Option {
	return func(c *Config) { c.AllowedMIMEs = mimes }
}
