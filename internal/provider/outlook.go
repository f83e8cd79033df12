package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"firmdesk.app/intake/internal/model"
)

const outlookSelect = "$select=id,conversationId,subject,from,toRecipients,ccRecipients,sentDateTime,receivedDateTime,bodyPreview"

type OutlookConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

// Outlook reads messages from Microsoft Graph.
type Outlook struct {
	client  *http.Client
	baseURL string
}

func NewOutlook(client *http.Client, baseURL string) *Outlook {
	return &Outlook{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewOutlookFromConfig authorises Graph calls with the app's client
// credentials.
func NewOutlookFromConfig(ctx context.Context, cfg OutlookConfig) *Outlook {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return NewOutlook(creds.Client(ctx), cfg.BaseURL)
}

func (o *Outlook) Kind() model.Provider {
	return model.ProviderOutlook
}

func (o *Outlook) Fetch(ctx context.Context, conn *model.EmailConnection, externalMessageID string) ([]byte, error) {
	mailbox := conn.MailboxAddress
	if conn.ExternalAccountID != nil && *conn.ExternalAccountID != "" {
		mailbox = *conn.ExternalAccountID
	}
	u := fmt.Sprintf("%s/users/%s/messages/%s?%s",
		o.baseURL, url.PathEscape(mailbox), url.PathEscape(externalMessageID), outlookSelect)

	header := http.Header{}
	header.Set("Prefer", `outlook.body-content-type="text"`)

	body, err := getMessage(ctx, o.client, u, header)
	if err != nil {
		return nil, fmt.Errorf("fetch graph message %s: %w", externalMessageID, err)
	}
	return body, nil
}

type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	ID               string           `json:"id"`
	ConversationID   string           `json:"conversationId"`
	Subject          string           `json:"subject"`
	From             graphRecipient   `json:"from"`
	ToRecipients     []graphRecipient `json:"toRecipients"`
	CcRecipients     []graphRecipient `json:"ccRecipients"`
	SentDateTime     *time.Time       `json:"sentDateTime"`
	ReceivedDateTime *time.Time       `json:"receivedDateTime"`
	BodyPreview      string           `json:"bodyPreview"`
}

// Normalize converts a Graph message resource.
func (o *Outlook) Normalize(raw []byte) (*InboundEmail, error) {
	var msg graphMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, parseFailure(model.ProviderOutlook, fmt.Errorf("decode: %w", err))
	}
	if msg.ID == "" {
		return nil, parseFailure(model.ProviderOutlook, fmt.Errorf("message id missing"))
	}
	if msg.ReceivedDateTime == nil {
		return nil, parseFailure(model.ProviderOutlook, fmt.Errorf("message %s has no receivedDateTime", msg.ID))
	}

	email := &InboundEmail{
		ExternalMessageID: msg.ID,
		From:              strings.ToLower(msg.From.EmailAddress.Address),
		To:                recipients(msg.ToRecipients),
		Cc:                recipients(msg.CcRecipients),
		Subject:           msg.Subject,
		ReceivedAt:        msg.ReceivedDateTime.UTC(),
		BodyPreview:       msg.BodyPreview,
	}
	if msg.ConversationID != "" {
		conversationID := msg.ConversationID
		email.ThreadID = &conversationID
	}
	if msg.SentDateTime != nil {
		sent := msg.SentDateTime.UTC()
		email.SentAt = &sent
	}
	return email, nil
}

func recipients(rs []graphRecipient) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.EmailAddress.Address != "" {
			out = append(out, strings.ToLower(r.EmailAddress.Address))
		}
	}
	return out
}
