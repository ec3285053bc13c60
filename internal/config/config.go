package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	// Бэкенд коллекций (проксирует Unsplash)
	APIURL        string        `env:"API_URL,required"`
	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	SearchPerPage int           `env:"SEARCH_PER_PAGE" envDefault:"30"`

	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Журнал скачиваний, нужен только воркеру
	DatabaseURL string `env:"DATABASE_URL"`

	// Настройки для MinIO
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"downloads"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`
	MinioPublicURL       string `env:"MINIO_PUBLIC_URL"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"photo_download_queue"`
	}

	DownloadConcurrency int `env:"DOWNLOAD_CONCURRENCY" envDefault:"5"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	return Parse()
}

// Parse читает конфигурацию только из окружения, без .env
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.SearchPerPage <= 0 {
		cfg.SearchPerPage = 30
	}
	if cfg.DownloadConcurrency <= 0 {
		cfg.DownloadConcurrency = 1
	}
	if cfg.MinioPublicURL == "" && cfg.MinioEndpoint != "" {
		cfg.MinioPublicURL = cfg.MinioEndpointURL()
	}

	return &cfg, nil
}

// MinioEndpointURL полный адрес MinIO с учётом схемы
func (c *Config) MinioEndpointURL() string {
	if c.MinioUseSSL {
		return fmt.Sprintf("https://%s", c.MinioEndpoint)
	}
	return fmt.Sprintf("http://%s", c.MinioEndpoint)
}

// ValidateWorker проверяет параметры, без которых воркер скачиваний не запустится
func (c *Config) ValidateWorker() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.MinioEndpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	if c.MinioAccessKeyID == "" {
		missing = append(missing, "MINIO_ACCESS_KEY_ID")
	}
	if c.MinioSecretAccessKey == "" {
		missing = append(missing, "MINIO_SECRET_ACCESS_KEY")
	}
	if c.RabbitMQ.RabbitMQURL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("worker configuration incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DownloadsEnabled true, если шлюз может публиковать задачи на скачивание
func (c *Config) DownloadsEnabled() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}

var errNoAPIURL = errors.New("API_URL is empty")

// Validate общие проверки для всех режимов
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errNoAPIURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("API_URL must start with http:// or https://, got %q", c.APIURL)
	}
	return nil
}
