package types

import (
	"time"
)

// Mode constants for gateway operation
const (
	ModeLocal  = "local"  // No Redis/Postgres, permissions from config
	ModeRemote = "remote" // Full infrastructure
)

// AppConfig is the root configuration for the s3meta gateway
type AppConfig struct {
	Mode       string `key:"mode" json:"mode"` // "local" or "remote"
	DebugMode  bool   `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool   `key:"prettyLogs" json:"pretty_logs"`

	Database    DatabaseConfig     `key:"database" json:"database"`
	Metadata    MetadataConfig     `key:"metadata" json:"metadata"`
	Gateway     GatewayConfig      `key:"gateway" json:"gateway"`
	Permissions []BucketPermission `key:"permissions" json:"permissions"` // local mode only
}

// IsLocalMode returns true if running in local mode (no Redis/Postgres)
func (c *AppConfig) IsLocalMode() bool {
	return c.Mode == ModeLocal
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis    RedisConfig    `key:"redis" json:"redis"`
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type RedisMode string

const (
	RedisModeSingle  RedisMode = "single"
	RedisModeCluster RedisMode = "cluster"
)

type RedisConfig struct {
	Mode               RedisMode     `key:"mode" json:"mode"`
	Addrs              []string      `key:"addrs" json:"addrs"`
	Username           string        `key:"username" json:"username"`
	Password           string        `key:"password" json:"password"`
	ClientName         string        `key:"clientName" json:"client_name"`
	EnableTLS          bool          `key:"enableTLS" json:"enable_tls"`
	InsecureSkipVerify bool          `key:"insecureSkipVerify" json:"insecure_skip_verify"`
	PoolSize           int           `key:"poolSize" json:"pool_size"`
	MinIdleConns       int           `key:"minIdleConns" json:"min_idle_conns"`
	MaxIdleConns       int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxIdleTime    time.Duration `key:"connMaxIdleTime" json:"conn_max_idle_time"`
	ConnMaxLifetime    time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
	DialTimeout        time.Duration `key:"dialTimeout" json:"dial_timeout"`
	ReadTimeout        time.Duration `key:"readTimeout" json:"read_timeout"`
	WriteTimeout       time.Duration `key:"writeTimeout" json:"write_timeout"`
	MaxRedirects       int           `key:"maxRedirects" json:"max_redirects"`
	MaxRetries         int           `key:"maxRetries" json:"max_retries"`
	RouteByLatency     bool          `key:"routeByLatency" json:"route_by_latency"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// ----------------------------------------------------------------------------
// Metadata Cache Configuration
// ----------------------------------------------------------------------------

// MetadataConfig holds the object-store and cache settings. MaxRetries,
// Endpoint and Region are read when a bucket client is built; ReloadPeriod
// re-arms the invalidation scheduler; any change to ClearTrigger clears the
// cache once.
type MetadataConfig struct {
	Endpoint         string        `key:"endpoint" json:"endpoint"`
	Region           string        `key:"region" json:"region"`
	ForcePathStyle   bool          `key:"forcePathStyle" json:"force_path_style"`
	MaxRetries       int           `key:"maxRetries" json:"max_retries"`
	ReloadPeriod     time.Duration `key:"reloadPeriod" json:"reload_period"`
	ClearTrigger     bool          `key:"clearTrigger" json:"clear_trigger"`
	ListPageSize     int32         `key:"listPageSize" json:"list_page_size"`
	ListTimeout      time.Duration `key:"listTimeout" json:"list_timeout"`
	BuildConcurrency int           `key:"buildConcurrency" json:"build_concurrency"`
	UserCacheSize    int           `key:"userCacheSize" json:"user_cache_size"`
}

const (
	DefaultReloadPeriod     = 60 * time.Minute
	DefaultMaxRetries       = 5
	DefaultListPageSize     = 1000
	DefaultListTimeout      = 30 * time.Second
	DefaultBuildConcurrency = 4
	DefaultUserCacheSize    = 10000
)

// WithDefaults fills zero values with the package defaults.
func (c MetadataConfig) WithDefaults() MetadataConfig {
	if c.ReloadPeriod <= 0 {
		c.ReloadPeriod = DefaultReloadPeriod
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.ListPageSize <= 0 {
		c.ListPageSize = DefaultListPageSize
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = DefaultListTimeout
	}
	if c.BuildConcurrency <= 0 {
		c.BuildConcurrency = DefaultBuildConcurrency
	}
	if c.UserCacheSize <= 0 {
		c.UserCacheSize = DefaultUserCacheSize
	}
	return c
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`

	// AuthToken is the cluster admin token; JWTSecret signs user tokens (HS256).
	AuthToken string `key:"authToken" json:"auth_token"`
	JWTSecret string `key:"jwtSecret" json:"jwt_secret"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}
