package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	S3       S3Config       `json:"s3"`
	Chat     ChatConfig     `json:"chat"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenExpiry   int    `json:"token_expiry"`   // in hours
	RefreshExpiry int    `json:"refresh_expiry"` // in hours
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type KafkaConfig struct {
	Brokers       []string `json:"brokers"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	SCRAMMech     string   `json:"scram_mechanism"` // SCRAM-SHA-256, SCRAM-SHA-512 or empty for PLAIN
	UseTLS        bool     `json:"use_tls"`
	CertFile      string   `json:"cert_file"`
	KeyFile       string   `json:"key_file"`
	CAFile        string   `json:"ca_file"`
	MessagesTopic string   `json:"messages_topic"`
	OrdersTopic   string   `json:"orders_topic"`
	ConsumerGroup string   `json:"consumer_group"` // empty disables the fulfillment consumer
}

type S3Config struct {
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// AutoResponseRule is one pattern -> canned reply pair. Rules are evaluated
// in the order they appear in the config file; the first match wins.
type AutoResponseRule struct {
	Pattern string `json:"pattern"`
	Reply   string `json:"reply"`
}

type ChatConfig struct {
	WelcomeText  string             `json:"welcome_text"`
	BotDelayMS   int                `json:"bot_delay_ms"`  // delay before a canned reply is emitted
	GraceSeconds int                `json:"grace_seconds"` // visitor disconnect grace before deactivation
	Rules        []AutoResponseRule `json:"auto_responses"`
}

func LoadConfig() (config Config, err error) {
	file, err := os.Open("config/config.json")
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		closeErr := file.Close()
		if closeErr != nil {
			log.Printf("Error closing config file: %v", closeErr)
		}
	}(file)
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Chat.WelcomeText == "" {
		config.Chat.WelcomeText = "Hi! Thanks for visiting CodeMart. An operator will be with you shortly."
	}
	if config.Chat.BotDelayMS <= 0 {
		config.Chat.BotDelayMS = 1500
	}
	if config.Chat.GraceSeconds <= 0 {
		config.Chat.GraceSeconds = 30
	}
	return config, nil
}
