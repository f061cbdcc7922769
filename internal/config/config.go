package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var _ domain.ConfigService = (*Config)(nil)

type Config struct {
	ChannelAccessToken  string        `env:"LINE_BOT_CHANNEL_ACCESS_TOKEN,required" validate:"required"`
	ChannelSecret       string        `env:"LINE_BOT_CHANNEL_SECRET"`
	LineAPIEndpoint     string        `env:"LINE_API_ENDPOINT" envDefault:"https://api.line.me" validate:"required,url"`
	APIEndpoint         string        `env:"API_ENDPOINT,required" validate:"required,url"`
	ConsoleEndpoint     string        `env:"CONSOLE_ENDPOINT,required" validate:"required,url"`
	AuthLoginURL        string        `env:"AUTH_LOGIN_URL,required" validate:"required,url"`
	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"memory" validate:"oneof=memory postgres mongo"`
	DatabaseURL         string        `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	MongoURI            string        `env:"MONGODB_URI" validate:"required_if=StoreDriver mongo"`
	MongoDatabase       string        `env:"MONGODB_DATABASE" envDefault:"line_assistant"`
	OTPTTL              time.Duration `env:"OTP_TTL" envDefault:"10m" validate:"gt=0"`
	ReturnOrderExpires  time.Duration `env:"RETURN_ORDER_EXPIRES" envDefault:"15m" validate:"gt=0"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY" envDefault:"8" validate:"min=1"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	APIKey              string        `env:"API_KEY"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Error is a fatal configuration problem found at startup.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return "configuration error: " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads .env if present, decodes the environment and validates it.
func Load() (*Config, error) {
	// Load .env if present
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, &Error{Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	c.LineAPIEndpoint = strings.TrimRight(c.LineAPIEndpoint, "/")
	c.APIEndpoint = strings.TrimRight(c.APIEndpoint, "/")

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			names := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				names = append(names, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return &Error{Cause: fmt.Errorf("invalid fields: %s", strings.Join(names, ", "))}
		}
		return &Error{Cause: err}
	}
	return nil
}

func (c *Config) GetChannelAccessToken() string {
	return c.ChannelAccessToken
}

func (c *Config) GetChannelSecret() string {
	return c.ChannelSecret
}

func (c *Config) GetLineAPIEndpoint() string {
	return c.LineAPIEndpoint
}

func (c *Config) GetAPIEndpoint() string {
	return c.APIEndpoint
}

func (c *Config) GetConsoleEndpoint() string {
	return c.ConsoleEndpoint
}

func (c *Config) GetAuthLoginURL() string {
	return c.AuthLoginURL
}

func (c *Config) GetAPIKey() string {
	return c.APIKey
}

func (c *Config) GetHTTPAddr() string {
	return c.HTTPAddr
}

func (c *Config) GetOTPTTL() time.Duration {
	return c.OTPTTL
}

func (c *Config) GetReturnOrderExpires() time.Duration {
	return c.ReturnOrderExpires
}

func (c *Config) GetDispatchConcurrency() int {
	return c.DispatchConcurrency
}
