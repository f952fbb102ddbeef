package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendVerification sends the email-verification link after signup.
func (c *Client) SendVerification(toEmail, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", c.baseURL, token)
	textBody := fmt.Sprintf("Welcome to UniSettle! Confirm your email address by opening the link below:\n\n%s", link)
	htmlBody := fmt.Sprintf(
		`<p>Welcome to UniSettle! Confirm your email address by clicking the link below:</p><p><a href="%s">Verify email</a></p>`,
		link,
	)
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Verify your UniSettle email",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendPasswordReset sends a reset link. The token expires in one hour.
func (c *Client) SendPasswordReset(toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", c.baseURL, token)
	textBody := fmt.Sprintf("A password reset was requested for your UniSettle account. Open the link below to choose a new password:\n\n%s\n\nThis link expires in 1 hour. If you did not request this, you can ignore this email.", link)
	htmlBody := fmt.Sprintf(
		`<p>A password reset was requested for your UniSettle account.</p><p><a href="%s">Choose a new password</a></p><p>This link expires in 1 hour. If you did not request this, you can ignore this email.</p>`,
		link,
	)
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Reset your UniSettle password",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(msg postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, postmarkURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("postmark returned status %d", resp.StatusCode)
	}
	return nil
}
