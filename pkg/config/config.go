package config

import "time"

// AppConfig holds the full crawler configuration. Values come from the YAML
// config file and may be overridden by command-line flags.
type AppConfig struct {
	CategoryURL string `yaml:"category_url"`          // Base listing URL, e.g. https://tululu.org/l55/
	StartPage   int    `yaml:"start_page,omitempty"`  // First listing page (inclusive), default 1
	EndPage     int    `yaml:"end_page,omitempty"`    // Last listing page (inclusive); 0 = discover from the pagination control
	SkipText    bool   `yaml:"skip_text,omitempty"`   // Do not download book texts
	SkipCovers  bool   `yaml:"skip_covers,omitempty"` // Do not download cover images

	DestDir      string `yaml:"dest_dir"`                // Destination root; must exist before the run starts
	BooksSubdir  string `yaml:"books_subdir,omitempty"`  // Book texts directory under dest_dir
	CoversSubdir string `yaml:"covers_subdir,omitempty"` // Cover images directory under dest_dir
	ManifestPath string `yaml:"manifest_path,omitempty"` // Output manifest file (JSON)

	UserAgent         string        `yaml:"user_agent,omitempty"`
	RespectRobotsTxt  bool          `yaml:"respect_robots_txt,omitempty"`
	ConnectRetryDelay time.Duration `yaml:"connect_retry_delay,omitempty"` // Fixed wait between retries once an outage is assumed
	MaxPageSizeBytes  int64         `yaml:"max_page_size_bytes,omitempty"` // Upper bound on an HTML page body

	MetricsAddr string `yaml:"metrics_addr,omitempty"` // Prometheus listen address; empty disables the endpoint

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}
