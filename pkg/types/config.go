package types

import (
	"time"
)

// AppConfig is the root configuration for the fngate gateway
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	Gateway    GatewayConfig    `key:"gateway" json:"gateway"`
	Controller ControllerConfig `key:"controller" json:"controller"`
	Scaling    ScalingConfig    `key:"scaling" json:"scaling"`
	Upstream   UpstreamConfig   `key:"upstream" json:"upstream"`
	Queue      QueueConfig      `key:"queue" json:"queue"`
	Database   DatabaseConfig   `key:"database" json:"database"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
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

// ----------------------------------------------------------------------------
// Workload Controller Configuration
// ----------------------------------------------------------------------------

// ControllerConfig points at the workload controller's query/command API
type ControllerConfig struct {
	BaseURL string        `key:"baseURL" json:"base_url"`
	Timeout time.Duration `key:"timeout" json:"timeout"`
}

// ----------------------------------------------------------------------------
// Scaling Configuration
// ----------------------------------------------------------------------------

// ScalingConfig bounds the scale-from-zero retry and poll loops
type ScalingConfig struct {
	// MaxScaleRetries bounds attempts to issue the scale-up command
	MaxScaleRetries int `key:"maxScaleRetries" json:"max_scale_retries"`

	// ScaleRetryInterval is the fixed delay between scale-command attempts
	ScaleRetryInterval time.Duration `key:"scaleRetryInterval" json:"scale_retry_interval"`

	// PollInterval is the fixed delay between readiness polls
	PollInterval time.Duration `key:"pollInterval" json:"poll_interval"`

	// MaxPollCount bounds readiness polls before the request times out
	MaxPollCount int `key:"maxPollCount" json:"max_poll_count"`

	// GateAsync runs async invocations through admission before enqueueing.
	// When false, async requests are accepted unconditionally.
	GateAsync bool `key:"gateAsync" json:"gate_async"`

	// DefaultNamespace is used when a function name carries no namespace suffix
	DefaultNamespace string `key:"defaultNamespace" json:"default_namespace"`
}

// ----------------------------------------------------------------------------
// Upstream (function instance) Configuration
// ----------------------------------------------------------------------------

type UpstreamConfig struct {
	Scheme  string        `key:"scheme" json:"scheme"`
	Port    int           `key:"port" json:"port"`
	Timeout time.Duration `key:"timeout" json:"timeout"`
}

// ----------------------------------------------------------------------------
// Queue Configuration
// ----------------------------------------------------------------------------

type QueueConfig struct {
	Enabled bool   `key:"enabled" json:"enabled"`
	Name    string `key:"name" json:"name"`
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis RedisConfig `key:"redis" json:"redis"`
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
