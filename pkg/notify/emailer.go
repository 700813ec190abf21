package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Emailer sends messages through the Zoho Mail REST API using an OAuth2
// client-credentials grant. One message per call, single recipient.
type Emailer struct {
	cfg    EmailerConfig
	client *http.Client
}

// EmailerConfig holds the provider account and addressing settings
type EmailerConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	TokenURL     string // zoho accounts token endpoint, overrideable for tests
	APIBase      string // zoho mail api base, overrideable for tests
	From         string
	To           string
	Timeout      time.Duration
}

// NewEmailer creates a mail client. The oauth2 transport caches the access
// token and refreshes it when expired.
func NewEmailer(cfg EmailerConfig) *Emailer {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"ZohoMail.messages.CREATE"},
	}

	client := cc.Client(context.Background())
	client.Timeout = cfg.Timeout

	return &Emailer{cfg: cfg, client: client}
}

// mailRequest is the Zoho Mail message payload
type mailRequest struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	MailFormat  string `json:"mailFormat"`
	AskReceipt  string `json:"askReceipt"`
}

// Send delivers one message to the configured recipient. The html body is
// preferred when present, the plain body is the fallback format.
func (e *Emailer) Send(ctx context.Context, subject, plainBody, htmlBody string) error {
	msg := mailRequest{
		FromAddress: e.cfg.From,
		ToAddress:   e.cfg.To,
		Subject:     subject,
		Content:     plainBody,
		MailFormat:  "plaintext",
		AskReceipt:  "no",
	}
	if htmlBody != "" {
		msg.Content = htmlBody
		msg.MailFormat = "html"
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/messages", strings.TrimSuffix(e.cfg.APIBase, "/"), e.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
