package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// Sender hands a single HTML message to an email provider.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Config struct {
	Provider string // zepto, ses, noop
	From     string
	FromName string

	ZeptoURL string
	ZeptoKey string

	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
}

// New picks a provider. Unknown providers fall back to noop.
func New(cfg Config, log *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "zepto":
		if cfg.ZeptoURL == "" || cfg.ZeptoKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("missing ZEPTO_API_URL, ZEPTO_API_KEY, or EMAIL_FROM")
		}
		return &zeptoSender{
			apiURL:   cfg.ZeptoURL,
			apiKey:   cfg.ZeptoKey,
			from:     cfg.From,
			fromName: cfg.FromName,
			client:   &http.Client{Timeout: 15 * time.Second},
		}, nil
	case "ses":
		if cfg.From == "" || cfg.AWSRegion == "" {
			return nil, fmt.Errorf("missing EMAIL_FROM or AWS_REGION")
		}
		awsCfg := aws.Config{
			Region: cfg.AWSRegion,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
			),
		}
		return &sesSender{
			client:   ses.NewFromConfig(awsCfg),
			from:     cfg.From,
			fromName: cfg.FromName,
		}, nil
	case "noop", "":
		return &noopSender{log: log}, nil
	default:
		log.Warn("unknown email provider, using noop", slog.String("provider", cfg.Provider))
		return &noopSender{log: log}, nil
	}
}

type noopSender struct {
	log *slog.Logger
}

func (n *noopSender) Send(_ context.Context, to, subject, _ string) error {
	n.log.Debug("email not sent (noop)", slog.String("to", to), slog.String("subject", subject))
	return nil
}
