// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	PaymentProvider         `yaml:"payment_provider"`
	TicketBot               `yaml:"ticket_bot"`
	ChatPlatform            `yaml:"chat_platform"`
	SMTP                    `yaml:"smtp"`
	RateLimit               `yaml:"rate_limit"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	FrontendOrigin string        `yaml:"frontend_origin"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// RabbitMQ структура для настройки подключения к брокеру сообщений
type RabbitMQ struct {
	AmqpConnectionString string        `yaml:"amqp_connection_string"`
	ConnectRetries       int           `yaml:"connect_retries"`
	ConnectDelay         time.Duration `yaml:"connect_delay"`
}

// PaymentProvider структура для работы с платёжным провайдером
type PaymentProvider struct {
	ShopID        string  `yaml:"shop_id"`
	ShopSecretKey string  `yaml:"shop_secret_key"`
	PaymentAPIURL string  `yaml:"payment_api_url"`
	ReturnURL     string  `yaml:"return_url"`
	WebhookSecret string  `yaml:"webhook_secret"`
	Prices        []Price `yaml:"prices"`
}

// Price структура одной позиции прайс-листа
type Price struct {
	ProductName string `yaml:"product_name"`
	ProductType string `yaml:"product_type"`
	Tier        string `yaml:"tier"`
	Amount      int64  `yaml:"amount"`
	Currency    string `yaml:"currency"`
}

// TicketBot структура для связи витрины с ботом тикетов
// и публичных ссылок сообщества, которые витрина отдаёт клиентам
type TicketBot struct {
	AddressBot       string        `yaml:"addressbot"`
	BotTimeout       time.Duration `yaml:"bot_timeout"`
	SupportInviteURL string        `yaml:"support_invite_url"`
	PurchaseURL      string        `yaml:"purchase_url"`
	ContactUsername  string        `yaml:"contact_username"`
}

// ChatPlatform структура для REST-клиента чат-платформы
type ChatPlatform struct {
	ChatAPIBaseURL   string `yaml:"chat_api_base_url"`
	BotToken         string `yaml:"bot_token"`
	GuildID          string `yaml:"guild_id"`
	TicketCategoryID string `yaml:"ticket_category_id"`
	StaffRoleID      string `yaml:"staff_role_id"`
	LogChannelID     string `yaml:"log_channel_id"`
	CommandPrefix    string `yaml:"command_prefix"`
	AddressShim      string `yaml:"addressshim"` // Адрес HTTP-прослойки бота
}

// SMTP структура для настройки почтового транспорта воркера уведомлений
type SMTP struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SMTPFrom     string `yaml:"smtp_from"`
}

// RateLimit структура для настройки ограничения частоты запросов
type RateLimit struct {
	RequestLimit    int           `yaml:"request_limit"`
	WindowRateLimit time.Duration `yaml:"window_rate_limit"`
}

// Scheduler структура для настройки планировщика напоминаний
type Scheduler struct {
	CheckInterval   time.Duration `yaml:"check_interval"`
	RemindBeforeDay int           `yaml:"remind_before_day"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"  DialTimeout: %s\n"+
			"  Timeout: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  AccessTokenTTL: %s\n"+
			"  RefreshTokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  ConnectionString: %s\n"+
			"TicketBot:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.AddressRedis,
		c.User,
		c.DB,
		c.MaxRetries,
		c.DialTimeout,
		c.TimeoutRedis,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AccessTokenTTL,
		c.RefreshTokenTTL,
		c.AmqpConnectionString,
		c.AddressBot,
		c.BotTimeout,
	)
}
