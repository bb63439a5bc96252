package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// setDefaults 同步层的兜底默认值
func setDefaults() {
	viper.SetDefault("api.timeout", 10)
	viper.SetDefault("api.retry_count", 0)
	viper.SetDefault("ws.handshake_timeout", 10)
	viper.SetDefault("ws.reconnect_base_delay", 1000)
	viper.SetDefault("ws.reconnect_max_delay", 30000)
	viper.SetDefault("ws.reconnect_max_attempts", 10)
	viper.SetDefault("sync.page_size", 50)
	viper.SetDefault("sync.debounce_millis", 1000)
	viper.SetDefault("sync.profile_cache_ttl", 10)
	viper.SetDefault("cron.resync_spec", "0 */2 * * * *")
	viper.SetDefault("cron.cache_sweep_spec", "0 */10 * * * *")
}
