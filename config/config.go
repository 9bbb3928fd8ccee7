package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	Env          string `env:"GO_ENV" env-default:"development"`
	Port         string `env:"PORT" env-default:"5000"`
	MongoURI     string `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	DBName       string `env:"DB_NAME" env-default:"event_easy"`
	JWTSecret    string `env:"JWT_SECRET" env-required:"true"`
	CORSOrigins  string `env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
	StatusPolicy string `env:"STATUS_POLICY" env-default:"permissive"`

	Payment    PaymentConfig
	Cloudinary CloudinaryConfig
	Email      EmailConfig

	MongoClient *mongo.Client
}

type PaymentConfig struct {
	BaseURL     string        `env:"CHAPA_BASE_URL" env-default:"https://api.chapa.co"`
	SecretKey   string        `env:"CHAPA_SECRET_KEY"`
	Currency    string        `env:"PAYMENT_CURRENCY" env-default:"ETB"`
	ReturnURL   string        `env:"PAYMENT_RETURN_URL" env-default:"http://localhost:5173/attend/{eventId}/payment-verification"`
	CallbackURL string        `env:"PAYMENT_CALLBACK_URL"`
	Timeout     time.Duration `env:"PAYMENT_TIMEOUT" env-default:"15s"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER" env-default:"Event-Easy"`
}

type EmailConfig struct {
	Provider     string `env:"EMAIL_PROVIDER" env-default:"noop"` // zepto, ses, noop
	From         string `env:"EMAIL_FROM"`
	FromName     string `env:"EMAIL_FROM_NAME" env-default:"Event Easy"`
	ZeptoURL     string `env:"ZEPTO_API_URL"`
	ZeptoKey     string `env:"ZEPTO_API_KEY"`
	AWSRegion    string `env:"AWS_REGION"`
	AWSAccessKey string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Load reads .env (outside production) and then the process environment.
func Load() (*Config, error) {
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.Payment.CallbackURL == "" {
		cfg.Payment.CallbackURL = cfg.Payment.ReturnURL
	}
	return &cfg, nil
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ConnectMongo dials MONGO_URI and pings the primary before returning.
func (c *Config) ConnectMongo(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(c.MongoURI).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}
	c.MongoClient = client
	return nil
}

func (c *Config) DB() *mongo.Database {
	return c.MongoClient.Database(c.DBName)
}
