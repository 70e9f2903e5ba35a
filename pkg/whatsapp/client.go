// Package whatsapp sends messages through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when the access token or phone number id is missing.
var ErrNotConfigured = errors.New("whatsapp is not configured")

// Config contains the Cloud API credentials and defaults.
type Config struct {
	AccessToken        string
	PhoneNumberID      string
	GraphURL           string
	APIVersion         string
	DefaultCountryCode string
}

// Client posts messages to the Cloud API messages endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New constructs a client. A nil http client is replaced with one that
// times out after ten seconds.
func New(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.GraphURL == "" {
		cfg.GraphURL = "https://graph.facebook.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v20.0"
	}
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "91"
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "whatsapp").Logger(),
	}
}

// Enabled reports whether credentials are present.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.AccessToken != "" && c.cfg.PhoneNumberID != ""
}

// NormalizePhone keeps digits and a leading plus, drops the plus and prefixes
// the default country code to ten digit numbers. Blank input yields "".
func (c *Client) NormalizePhone(raw string) string {
	var builder strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			builder.WriteRune(r)
		}
	}
	digits := builder.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "+") {
		return digits[1:]
	}
	if len(digits) == 10 {
		return c.cfg.DefaultCountryCode + digits
	}
	return digits
}

type message struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textBody     `json:"text,omitempty"`
	Template         *templateBody `json:"template,omitempty"`
	Document         *documentBody `json:"document,omitempty"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type documentBody struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendTemplate sends an approved template with positional body parameters.
func (c *Client) SendTemplate(ctx context.Context, to, name, language string, params []string) error {
	components := []templateComponent{}
	if len(params) > 0 {
		parameters := make([]templateParameter, 0, len(params))
		for _, param := range params {
			parameters = append(parameters, templateParameter{Type: "text", Text: param})
		}
		components = append(components, templateComponent{Type: "body", Parameters: parameters})
	}
	if language == "" {
		language = "en"
	}

	return c.send(ctx, to, "template", func(m *message) {
		m.Template = &templateBody{Name: name, Language: templateLanguage{Code: language}, Components: components}
	})
}

// SendText sends a plain text message without link previews.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, to, "text", func(m *message) {
		m.Text = &textBody{Body: body}
	})
}

// SendDocument sends a document hosted at link.
func (c *Client) SendDocument(ctx context.Context, to, link, filename, caption string) error {
	return c.send(ctx, to, "document", func(m *message) {
		m.Document = &documentBody{Link: link, Filename: filename, Caption: caption}
	})
}

func (c *Client) send(ctx context.Context, to, kind string, fill func(*message)) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}

	phone := c.NormalizePhone(to)
	if phone == "" {
		return nil
	}

	payload := message{MessagingProduct: "whatsapp", To: phone, Type: kind}
	fill(&payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp %s message: %w", kind, err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(c.cfg.GraphURL, "/"), c.cfg.APIVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp %s message: %w", kind, err)
	}
	defer resp.Body.Close()

	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var decoded apiError
		if json.Unmarshal(responseBody, &decoded) == nil && decoded.Error.Message != "" {
			return fmt.Errorf("whatsapp %s send failed: %s", kind, decoded.Error.Message)
		}
		return fmt.Errorf("whatsapp %s send failed with status %d", kind, resp.StatusCode)
	}

	c.logger.Debug().Str("type", kind).Str("to", phone).Msg("whatsapp message sent")
	return nil
}
