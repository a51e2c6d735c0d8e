package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kueapp/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const resendEndpoint = "https://api.resend.com/emails"

// Client is a minimal Resend email client with per-address rate limiting
// in Redis. A nil client logs instead of sending, which is what dev
// environments without an API key get.
type Client struct {
	apiKey           string
	from             string
	appBaseURL       string
	rdb              *redis.Client
	httpClient       *http.Client
	rateLimitSeconds int
}

// Default package-level client (set from main on startup)
var Default *Client

// SetDefault sets the package Default client.
func SetDefault(c *Client) {
	Default = c
}

// NewClient constructs a Resend client. Returns nil if not configured.
func NewClient(cfg *config.Config, rdb *redis.Client) *Client {
	if cfg == nil || cfg.ResendAPIKey == "" {
		return nil
	}
	return &Client{
		apiKey:           cfg.ResendAPIKey,
		from:             cfg.ResendFrom,
		appBaseURL:       strings.TrimRight(cfg.AppBaseURL, "/"),
		rdb:              rdb,
		httpClient:       &http.Client{Timeout: 15 * time.Second},
		rateLimitSeconds: cfg.EmailRateLimitSeconds,
	}
}

// Send delivers one email. A nil client logs the message and returns nil
// so auth flows keep working in dev.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if c == nil {
		log.Printf("[EMAIL] (not configured) to=%s subject=%q", to, subject)
		return nil
	}

	// Rate limit per recipient
	if c.rdb != nil && c.rateLimitSeconds > 0 {
		key := fmt.Sprintf("email_rate:%s", to)
		ok, err := c.rdb.SetNX(ctx, key, "1", time.Duration(c.rateLimitSeconds)*time.Second).Result()
		if err == nil && !ok {
			return fmt.Errorf("rate limited: %s", to)
		}
		// ignore Redis errors and proceed
	}

	payload := map[string]interface{}{
		"from":    c.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", resendEndpoint, strings.NewReader(string(b)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errors.New("resend error: " + strings.TrimSpace(string(body)))
	}

	log.Printf("[EMAIL] Sent to=%s subject=%q", to, subject)
	return nil
}

// SendVerificationEmail sends the email-verification link for a fresh or
// re-requested token.
func (c *Client) SendVerificationEmail(ctx context.Context, to, token string) error {
	base := "http://localhost:8080"
	if c != nil && c.appBaseURL != "" {
		base = c.appBaseURL
	}
	link := fmt.Sprintf("%s/auth/verify?token=%s", base, token)
	html := fmt.Sprintf(`<p>Welcome to Kue!</p><p>Verify your email by opening <a href="%s">this link</a>. It expires soon.</p>`, link)
	return c.Send(ctx, to, "Verify your Kue account", html)
}

// SendPasswordResetEmail sends the password-reset link.
func (c *Client) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	base := "http://localhost:8080"
	if c != nil && c.appBaseURL != "" {
		base = c.appBaseURL
	}
	link := fmt.Sprintf("%s/auth/reset?token=%s", base, token)
	html := fmt.Sprintf(`<p>A password reset was requested for your Kue account.</p><p>Reset it via <a href="%s">this link</a>. If you did not ask for this, ignore this email.</p>`, link)
	return c.Send(ctx, to, "Reset your Kue password", html)
}
