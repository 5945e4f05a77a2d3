package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	ZapShift ZapShiftConfig `yaml:"zapshift"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ParcelTrackedTopicName string `yaml:"parcel_tracked_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ZapShiftConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// кэш ленты трекинга; 0 выключает кэш целиком
	TimelineTTLSeconds int `yaml:"timeline_ttl_seconds"`

	// бронирований на пользователя в минуту; 0 — без лимита
	BookingRateLimitPerMinute int `yaml:"booking_rate_limit_per_minute"`

	// Платёжный шлюз. Пустой base_url включает фейковый процессинг —
	// режим локальной разработки.
	PaymentGatewayBaseURL string `yaml:"payment_gateway_base_url"`
	PaymentGatewayAPIKey  string `yaml:"payment_gateway_api_key"`
	Currency              string `yaml:"currency"`

	// Статические bearer-токены, пока нет внешнего IdP.
	AuthTokens map[string]AuthTokenConfig `yaml:"auth_tokens"`
}

type AuthTokenConfig struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
