package services

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rpupo63/portfolio-cms-backend/config"
	"github.com/rpupo63/portfolio-cms-backend/errs"
)

// SMSNotifier texts a fixed number through Twilio.
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
}

// NewSMSNotifier needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN,
// TWILIO_FROM_NUMBER and TWILIO_TO_NUMBER.
func NewSMSNotifier(cfg map[string]string) (*SMSNotifier, error) {
	keys := []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "TWILIO_TO_NUMBER"}
	for _, key := range keys {
		if config.GetString(cfg, key, "") == "" {
			return nil, errs.NewConfigMissingError(key)
		}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.GetString(cfg, "TWILIO_ACCOUNT_SID", ""),
		Password: config.GetString(cfg, "TWILIO_AUTH_TOKEN", ""),
	})
	return &SMSNotifier{
		client: client,
		from:   config.GetString(cfg, "TWILIO_FROM_NUMBER", ""),
		to:     config.GetString(cfg, "TWILIO_TO_NUMBER", ""),
	}, nil
}

// Notify sends body, truncated to a single 160 character segment.
func (n *SMSNotifier) Notify(body string) error {
	if r := []rune(body); len(r) > 160 {
		body = string(r[:157]) + "..."
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.Sid == nil {
		return fmt.Errorf("send sms: empty message sid")
	}
	return nil
}
