package api

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/services"
)

// EmailSender delivers one message; *services.EmailSender implements it.
type EmailSender interface {
	Send(ctx context.Context, email services.Email) (string, error)
}

// SMSNotifier sends a short text; *services.SMSNotifier implements it.
type SMSNotifier interface {
	Notify(body string) error
}

// ContactRequest is a message from the public contact form
type ContactRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"notblank,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

// ContactResponse acknowledges a delivered message
type ContactResponse struct {
	Status string `json:"status" example:"sent"`
	ID     string `json:"id,omitempty"`
}

type contactHandler struct {
	responder    Responder
	logger       zerolog.Logger
	settingsRepo *database.SettingsRepo
	email        EmailSender
	sms          SMSNotifier
	recipient    string
	metrics      *metrics
}

func newContactHandler(settingsRepo *database.SettingsRepo, email EmailSender, sms SMSNotifier, recipient string, m *metrics) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		settingsRepo: settingsRepo,
		email:        email,
		sms:          sms,
		recipient:    recipient,
		metrics:      m,
	}
}

func (h contactHandler) count(result string) {
	if h.metrics != nil {
		h.metrics.contactMessages.WithLabelValues(result).Inc()
	}
}

// sendMessage emails a contact form submission to the site owner
// @Summary Send a contact message
// @Tags Public
// @Accept json
// @Produce json
// @Param message body ContactRequest true "Contact form"
// @Success 202 {object} ContactResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Failure 503 {object} ErrorResponse "Email delivery not configured"
// @Router /api/public/contact [post]
func (h contactHandler) sendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContactRequest
		if _, err := decodeJSON(w, r, &req); err != nil {
			h.count("invalid")
			h.responder.WriteError(w, err)
			return
		}
		if fields := validateStruct(req); !fields.Empty() {
			h.count("invalid")
			h.responder.WriteError(w, fields.Err())
			return
		}

		if h.email == nil {
			h.count("unavailable")
			h.responder.WriteError(w, errs.NewServiceUnavailableError("email delivery", nil))
			return
		}
		recipient, err := h.resolveRecipient(r.Context())
		if err != nil {
			h.count("failed")
			h.responder.WriteError(w, err)
			return
		}

		subject := strings.TrimSpace(req.Subject)
		if subject == "" {
			subject = "New message from " + req.Name
		}
		id, err := h.email.Send(r.Context(), services.Email{
			To:      []string{recipient},
			Subject: "[Portfolio] " + subject,
			Html:    contactHTML(req),
			Text:    fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message),
			ReplyTo: req.Email,
		})
		if err != nil {
			h.count("failed")
			h.responder.WriteError(w, errs.NewServiceUnavailableError("email delivery", err))
			return
		}

		if h.sms != nil {
			if err := h.sms.Notify(fmt.Sprintf("Portfolio message from %s: %s", req.Name, subject)); err != nil {
				h.logger.Warn().Err(err).Msg("failed to send contact sms")
			}
		}

		h.count("sent")
		h.logger.Info().Str("emailId", id).Str("ip", clientIP(r)).Msg("contact message delivered")
		h.responder.WriteJSONStatus(w, http.StatusAccepted, ContactResponse{Status: "sent", ID: id})
	}
}

// resolveRecipient prefers the configured CONTACT_EMAIL and falls back to the
// contact address in site settings.
func (h contactHandler) resolveRecipient(ctx context.Context) (string, error) {
	if h.recipient != "" {
		return h.recipient, nil
	}
	settings, err := h.settingsRepo.Get(ctx)
	if err != nil {
		return "", wrapDatabaseError("load", settingsEntity, err)
	}
	if strings.TrimSpace(settings.ContactEmail) == "" {
		return "", errs.NewServiceUnavailableError("email delivery", fmt.Errorf("no contact address configured"))
	}
	return settings.ContactEmail, nil
}

func contactHTML(req ContactRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>From:</strong> %s &lt;%s&gt;</p>", html.EscapeString(req.Name), html.EscapeString(req.Email))
	if req.Subject != "" {
		fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>", html.EscapeString(req.Subject))
	}
	b.WriteString("<p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(req.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}
