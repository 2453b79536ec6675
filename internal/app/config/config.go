package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceHost string
	ServicePort int
	JWT         JWTConfig
	Redis       RedisConfig
	Minio       MinioConfig
	Square      SquareConfig
}

type JWTConfig struct {
	Token         string
	ExpiresIn     time.Duration
	SigningMethod jwt.SigningMethod
}

type RedisConfig struct {
	Host        string
	Password    string
	Port        int
	User        string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SquareConfig — доступ к платежному провайдеру.
// SignatureKey и NotificationURL нужны для проверки подписи вебхуков.
type SquareConfig struct {
	AccessToken     string
	LocationID      string
	Environment     string // sandbox или production
	SignatureKey    string
	NotificationURL string
	PaymentLinkBase string // база для ссылок на оплату (payment_pending заявки)
	Timeout         time.Duration
}

const (
	envRedisHost = "REDIS_HOST"
	envRedisPort = "REDIS_PORT"
	envRedisUser = "REDIS_USER"
	envRedisPass = "REDIS_PASSWORD"

	envMinioEndpoint  = "MINIO_ENDPOINT"
	envMinioAccessKey = "MINIO_ACCESS_KEY"
	envMinioSecretKey = "MINIO_SECRET_KEY"
	envMinioBucket    = "MINIO_BUCKET"

	envSquareAccessToken     = "SQUARE_ACCESS_TOKEN"
	envSquareLocationID      = "SQUARE_LOCATION_ID"
	envSquareEnvironment     = "SQUARE_ENVIRONMENT"
	envSquareSignatureKey    = "SQUARE_WEBHOOK_SIGNATURE_KEY"
	envSquareNotificationURL = "SQUARE_WEBHOOK_NOTIFICATION_URL"
	envSquarePaymentLinkBase = "SQUARE_PAYMENT_LINK_BASE"
)

func NewConfig() (*Config, error) {
	var err error

	configName := "config"
	_ = godotenv.Load()
	if os.Getenv("CONFIG_NAME") != "" {
		configName = os.Getenv("CONFIG_NAME")
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("toml")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.WatchConfig()

	err = viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = viper.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}

	// инициализация JWT конфигурации
	cfg.JWT = JWTConfig{
		Token:         os.Getenv("JWT_SECRET"),
		ExpiresIn:     time.Hour,
		SigningMethod: jwt.SigningMethodHS256,
	}
	if cfg.JWT.Token == "" {
		cfg.JWT.Token = "test"
	}

	// инициализация Redis конфигурации из env
	cfg.Redis.Host = os.Getenv(envRedisHost)
	cfg.Redis.Port, err = strconv.Atoi(os.Getenv(envRedisPort))
	if err != nil {
		return nil, fmt.Errorf("redis port must be int value: %w", err)
	}
	cfg.Redis.Password = os.Getenv(envRedisPass)
	cfg.Redis.User = os.Getenv(envRedisUser)
	cfg.Redis.DialTimeout = 10 * time.Second
	cfg.Redis.ReadTimeout = 10 * time.Second

	// инициализация MinIO из env
	cfg.Minio.Endpoint = os.Getenv(envMinioEndpoint)
	cfg.Minio.AccessKey = os.Getenv(envMinioAccessKey)
	cfg.Minio.SecretKey = os.Getenv(envMinioSecretKey)
	cfg.Minio.Bucket = os.Getenv(envMinioBucket)
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "team-logos"
	}
	cfg.Minio.UseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	// инициализация Square из env
	cfg.Square.AccessToken = os.Getenv(envSquareAccessToken)
	cfg.Square.LocationID = os.Getenv(envSquareLocationID)
	cfg.Square.Environment = os.Getenv(envSquareEnvironment)
	if cfg.Square.Environment == "" {
		cfg.Square.Environment = "sandbox"
	}
	cfg.Square.SignatureKey = os.Getenv(envSquareSignatureKey)
	cfg.Square.NotificationURL = os.Getenv(envSquareNotificationURL)
	cfg.Square.PaymentLinkBase = os.Getenv(envSquarePaymentLinkBase)
	cfg.Square.Timeout = 10 * time.Second

	log.Info("config parsed")

	return cfg, nil
}
