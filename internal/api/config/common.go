package config

// Config 配置主体
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	WS       WSConfig       `mapstructure:"ws"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sync     SyncConfig     `mapstructure:"sync"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Cron     CronConfig     `mapstructure:"cron"`
	Logstash LogstashConfig `mapstructure:"logstash"`
}

// APIConfig 后端 REST 接口配置
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`     // 单次请求超时（秒）
	RetryCount int    `mapstructure:"retry_count"` // resty 层重试次数
}

// WSConfig 实时事件通道配置
type WSConfig struct {
	URL                  string `mapstructure:"url"`
	HandshakeTimeout     int    `mapstructure:"handshake_timeout"`      // 秒
	ReconnectBaseDelay   int    `mapstructure:"reconnect_base_delay"`   // 毫秒
	ReconnectMaxDelay    int    `mapstructure:"reconnect_max_delay"`    // 毫秒
	ReconnectMaxAttempts int    `mapstructure:"reconnect_max_attempts"` // 0 表示不限次数
}

// AuthConfig 凭证来源
type AuthConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token_file"`
}

// SyncConfig 同步调优参数
type SyncConfig struct {
	PageSize        int `mapstructure:"page_size"`
	DebounceMillis  int `mapstructure:"debounce_millis"`
	ProfileCacheTTL int `mapstructure:"profile_cache_ttl"` // 分钟
}

// MinIOConfig 附件对象存储配置
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	UsePublicLink    bool   `mapstructure:"use_public_link"`
}

// CronConfig 后台任务调度表达式
type CronConfig struct {
	ResyncSpec     string `mapstructure:"resync_spec"`
	CacheSweepSpec string `mapstructure:"cache_sweep_spec"`
}

// LogstashConfig 远程日志上报（可选）
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
}
