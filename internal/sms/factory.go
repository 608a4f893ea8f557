package sms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

// Supported gateway names.
const (
	ProviderTwilio = "twilio"
	ProviderSNS    = "sns"
	ProviderLog    = "log"
)

// Config selects and configures the SMS gateway.
type Config struct {
	Provider         string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AWSRegion        string
	AWSSenderID      string
}

// NewSender builds the MessageSender named by cfg.Provider.
func NewSender(ctx context.Context, cfg Config, logger *zap.Logger) (notification.MessageSender, error) {
	switch cfg.Provider {
	case ProviderTwilio:
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
			return nil, fmt.Errorf("twilio sender requires account SID and auth token")
		}
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber), nil
	case ProviderSNS:
		return NewSNSSender(ctx, cfg.AWSRegion, cfg.AWSSenderID)
	case ProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}
