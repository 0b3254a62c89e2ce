// Package notify delivers guardian messages through a WhatsApp HTTP gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/pkg/config"
)

// Client talks to the message gateway.
type Client struct {
	gatewayURL string
	apiKey     string
	sender     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a gateway client.
func NewClient(cfg config.NotificationConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type gatewayRequest struct {
	APIKey  string `json:"api_key"`
	Sender  string `json:"sender"`
	Number  string `json:"number"`
	Message string `json:"message"`
}

type gatewayResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
}

// SendMessage delivers one message to the given phone number. The number is
// normalised to the 62-prefixed form the gateway expects.
func (c *Client) SendMessage(ctx context.Context, number, message string) error {
	normalized := NormalizePhone(number)
	if normalized == "" {
		return fmt.Errorf("no valid phone number in %q", number)
	}

	payload, err := json.Marshal(gatewayRequest{
		APIKey:  c.apiKey,
		Sender:  c.sender,
		Number:  normalized,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("encode gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	var decoded gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if !decoded.Status {
		return fmt.Errorf("gateway rejected message: %s", decoded.Msg)
	}
	return nil
}

// NormalizePhone rewrites an Indonesian phone number to its 62-prefixed
// digits-only form. Returns "" when no usable digits remain.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	switch {
	case number == "":
		return ""
	case strings.HasPrefix(number, "62"):
		return number
	case strings.HasPrefix(number, "0"):
		return "62" + number[1:]
	default:
		return "62" + number
	}
}

// RenderTemplate substitutes the message tokens. Unknown tokens are left as
// written so a typo in a configured template is visible in the delivery.
func RenderTemplate(template string, values map[string]string) string {
	out := template
	for token, value := range values {
		out = strings.ReplaceAll(out, "{"+token+"}", value)
	}
	return out
}

type rosterIndexProvider interface {
	Index(ctx context.Context) (models.RosterIndex, error)
}

// Dispatcher turns a notification intent into a rendered gateway message.
type Dispatcher struct {
	client    *Client
	roster    rosterIndexProvider
	templates config.NotificationConfig
	loc       *time.Location
	logger    *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(client *Client, roster rosterIndexProvider, cfg config.NotificationConfig, loc *time.Location, logger *zap.Logger) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{client: client, roster: roster, templates: cfg, loc: loc, logger: logger}
}

// Dispatch renders the template for the intent and sends it to the
// student's guardian. Students without a guardian contact are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.NotificationIntent) error {
	index, err := d.roster.Index(ctx)
	if err != nil {
		return fmt.Errorf("resolve roster: %w", err)
	}
	student, ok := index[intent.NIS]
	if !ok {
		return fmt.Errorf("NIS %s is not registered", intent.NIS)
	}
	if student.GuardianContact == "" {
		d.logger.Debug("no guardian contact, skipping", zap.String("nis", intent.NIS))
		return nil
	}

	at := time.Unix(intent.Timestamp, 0).In(d.loc)
	message := RenderTemplate(d.template(intent), map[string]string{
		"nama":    student.Name,
		"nis":     student.NIS,
		"kelas":   student.Cohort,
		"waktu":   at.Format("15:04"),
		"tanggal": at.Format("02/01/2006"),
		"status":  string(intent.Status),
	})
	return d.client.SendMessage(ctx, student.GuardianContact, message)
}

// template picks the configured message for the intent. Manual entries use
// the status-specific template; a manual Present falls back to check-in.
func (d *Dispatcher) template(intent models.NotificationIntent) string {
	if intent.Type == models.EventCheckOut {
		return d.templates.TemplateCheckOut
	}
	switch intent.Status {
	case models.StatusSick:
		return d.templates.TemplateSick
	case models.StatusLeave:
		return d.templates.TemplateLeave
	case models.StatusAbsent:
		return d.templates.TemplateAbsent
	default:
		return d.templates.TemplateCheckIn
	}
}
