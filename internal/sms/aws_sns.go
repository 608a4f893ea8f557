package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender sends transactional SMS through AWS SNS.
type SNSSender struct {
	client   snsPublisher
	senderID string
}

// NewSNSSender loads the default AWS credential chain for region.
func NewSNSSender(ctx context.Context, region, senderID string) (*SNSSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SNSSender{client: sns.NewFromConfig(cfg), senderID: senderID}, nil
}

// SendMessage implements notification.MessageSender. A non-empty Credential
// overrides the configured sender ID.
func (s *SNSSender) SendMessage(ctx context.Context, req notification.SendRequest) (*notification.SendResult, error) {
	attrs := map[string]snsTypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	senderID := s.senderID
	if req.Credential != "" {
		senderID = req.Credential
	}
	if senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}

	resp, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(req.Phone),
		Message:           aws.String(req.Message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return &notification.SendResult{Success: false, Error: err.Error()}, fmt.Errorf("sns: %w", err)
	}

	return &notification.SendResult{Success: true, MessageID: aws.ToString(resp.MessageId)}, nil
}
