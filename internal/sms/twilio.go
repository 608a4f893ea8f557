package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

// twilioMessages is the part of the Twilio REST API the sender uses.
type twilioMessages interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	messages   twilioMessages
	fromNumber string
}

// NewTwilioSender creates a sender authenticated with the account SID and token.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{messages: client.Api, fromNumber: fromNumber}
}

// SendMessage implements notification.MessageSender. A non-empty Credential
// overrides the configured from-number.
func (t *TwilioSender) SendMessage(_ context.Context, req notification.SendRequest) (*notification.SendResult, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(req.Phone)
	params.SetFrom(t.getFromNumber(req.Credential))
	params.SetBody(req.Message)

	resp, err := t.messages.CreateMessage(params)
	if err != nil {
		return &notification.SendResult{Success: false, Error: err.Error()}, fmt.Errorf("twilio: %w", err)
	}

	result := &notification.SendResult{Success: true}
	if resp.Sid != nil {
		result.MessageID = *resp.Sid
	}
	if resp.Status != nil && string(*resp.Status) == "failed" {
		result.Success = false
		result.Error = "twilio reported status failed"
		if resp.ErrorMessage != nil {
			result.Error = *resp.ErrorMessage
		}
	}
	return result, nil
}

func (t *TwilioSender) getFromNumber(from string) string {
	if from != "" {
		return from
	}
	return t.fromNumber
}
