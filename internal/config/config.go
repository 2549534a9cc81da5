package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string `yaml:"env" env-default:"local"`
	StoragePath    string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env-default:"file://migrations"`
	RedisAddr      string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer     `yaml:"http_server"`
	Sweep          Sweep    `yaml:"sweep"`
	Notifier       Notifier `yaml:"notifier"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Sweep struct {
	LookaheadHours     int `yaml:"lookahead_hours" env-default:"25"`
	ToleranceMinutes   int `yaml:"tolerance_minutes" env-default:"5"`
	DedupWindowMinutes int `yaml:"dedup_window_minutes" env-default:"10"`
	TriggersPerMinute  int `yaml:"triggers_per_minute" env-default:"6"`
}

type Notifier struct {
	SendTimeout      time.Duration `yaml:"send_timeout" env-default:"10s"`
	EmailEndpoint    string        `yaml:"email_endpoint"`
	SMSEndpoint      string        `yaml:"sms_endpoint"`
	WhatsAppEndpoint string        `yaml:"whatsapp_endpoint"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
