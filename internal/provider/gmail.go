package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"firmdesk.app/intake/internal/model"
)

const gmailMetadataHeaders = "metadataHeaders=From&metadataHeaders=To&metadataHeaders=Cc&metadataHeaders=Subject&metadataHeaders=Date"

type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	BaseURL      string
}

// Gmail reads message metadata from the Gmail REST API.
type Gmail struct {
	client  *http.Client
	baseURL string
}

func NewGmail(client *http.Client, baseURL string) *Gmail {
	return &Gmail{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewGmailFromConfig builds a Gmail provider whose client refreshes its
// access token from the configured refresh token.
func NewGmailFromConfig(ctx context.Context, cfg GmailConfig) *Gmail {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.metadata"},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return NewGmail(oauth2.NewClient(ctx, ts), cfg.BaseURL)
}

func (g *Gmail) Kind() model.Provider {
	return model.ProviderGmail
}

func (g *Gmail) Fetch(ctx context.Context, conn *model.EmailConnection, externalMessageID string) ([]byte, error) {
	u := fmt.Sprintf("%s/users/%s/messages/%s?format=metadata&%s",
		g.baseURL, url.PathEscape(conn.MailboxAddress), url.PathEscape(externalMessageID), gmailMetadataHeaders)

	body, err := getMessage(ctx, g.client, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch gmail message %s: %w", externalMessageID, err)
	}
	return body, nil
}

type gmailMessage struct {
	ID           string `json:"id"`
	ThreadID     string `json:"threadId"`
	Snippet      string `json:"snippet"`
	InternalDate string `json:"internalDate"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

// Normalize converts a Gmail API message resource.
func (g *Gmail) Normalize(raw []byte) (*InboundEmail, error) {
	var msg gmailMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, parseFailure(model.ProviderGmail, fmt.Errorf("decode: %w", err))
	}
	if msg.ID == "" {
		return nil, parseFailure(model.ProviderGmail, fmt.Errorf("message id missing"))
	}

	headers := make(map[string]string, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}

	email := &InboundEmail{
		ExternalMessageID: msg.ID,
		From:              firstAddress(headers["from"]),
		To:                addressList(headers["to"]),
		Cc:                addressList(headers["cc"]),
		Subject:           headers["subject"],
		BodyPreview:       msg.Snippet,
	}
	if msg.ThreadID != "" {
		threadID := msg.ThreadID
		email.ThreadID = &threadID
	}
	if date, err := mail.ParseDate(headers["date"]); err == nil {
		sent := date.UTC()
		email.SentAt = &sent
	}
	if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
		email.ReceivedAt = time.UnixMilli(ms).UTC()
	} else if email.SentAt != nil {
		email.ReceivedAt = *email.SentAt
	} else {
		return nil, parseFailure(model.ProviderGmail, fmt.Errorf("message %s has no usable date", msg.ID))
	}
	return email, nil
}

// firstAddress returns the bare address of the first mailbox in an RFC 5322
// address header, falling back to the trimmed header.
func firstAddress(header string) string {
	list := addressList(header)
	if len(list) > 0 {
		return list[0]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

func addressList(header string) []string {
	if strings.TrimSpace(header) == "" {
		return []string{}
	}
	parsed, err := mail.ParseAddressList(header)
	if err != nil {
		return []string{}
	}
	out := make([]string, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, strings.ToLower(a.Address))
	}
	return out
}
