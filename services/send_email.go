package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/config"
	"github.com/rpupo63/portfolio-cms-backend/errs"
)

const resendBaseURL = "https://api.resend.com"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// Email is one outgoing message.
type Email struct {
	To      []string
	Subject string
	Html    string
	Text    string
	ReplyTo string
}

// EmailSender sends mail through the Resend API.
type EmailSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewEmailSender reads RESEND_API_KEY and RESEND_FROM_EMAIL. It returns an
// ErrConfigMissing error when either is unset.
func NewEmailSender(cfg map[string]string) (*EmailSender, error) {
	apiKey := config.GetString(cfg, "RESEND_API_KEY", "")
	if apiKey == "" {
		return nil, errs.NewConfigMissingError("RESEND_API_KEY")
	}
	fromEmail := config.GetString(cfg, "RESEND_FROM_EMAIL", "")
	if fromEmail == "" {
		return nil, errs.NewConfigMissingError("RESEND_FROM_EMAIL")
	}

	return &EmailSender{
		apiKey:  apiKey,
		from:    fromEmail,
		baseURL: config.GetString(cfg, "RESEND_BASE_URL", resendBaseURL),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Send delivers email and returns the Resend message id.
func (s *EmailSender) Send(ctx context.Context, email Email) (string, error) {
	if len(email.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	payload := ResendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.Html,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return "", fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return "", fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
		return "", nil
	}
	log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	return emailResponse.ID, nil
}
