package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`      // 连接池大小，记账路径每笔都要抢账户锁
	MinIdleConns int    `mapstructure:"min_idle_conns"` // 预热空闲连接数
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TransactionEvents string `mapstructure:"transaction_events"`
}

type JWTConfig struct {
	Secret               string `mapstructure:"secret"`
	AccessExpireMinutes  int    `mapstructure:"access_expire_minutes"`
	RefreshExpireDays    int    `mapstructure:"refresh_expire_days"`
}

type BusinessConfig struct {
	AccountNumberPrefix string `mapstructure:"account_number_prefix"` // 账号前缀，默认 TR
	MaxRetryCount       int    `mapstructure:"max_retry_count"`       // 发件箱投递最大重试次数
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	if config.Business.AccountNumberPrefix == "" {
		config.Business.AccountNumberPrefix = "TR"
	}
	if config.Redis.PoolSize <= 0 {
		config.Redis.PoolSize = 50
	}
	if config.Redis.MinIdleConns <= 0 {
		config.Redis.MinIdleConns = 10
	}

	GlobalConfig = config
	return config
}
