package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"firmdesk.app/intake/internal/model"
)

// Other accepts raw RFC 822 documents pushed to us. It cannot fetch.
type Other struct {
	now func() time.Time
}

func NewOther() *Other {
	return &Other{now: time.Now}
}

func (o *Other) Kind() model.Provider {
	return model.ProviderOther
}

func (o *Other) Fetch(ctx context.Context, conn *model.EmailConnection, externalMessageID string) ([]byte, error) {
	return nil, model.NewJobError(model.ErrorClassNonRetryable, ErrFetchUnsupported)
}

// Normalize parses a MIME message. The thread id is the root of References,
// else In-Reply-To, else the message's own id.
func (o *Other) Normalize(raw []byte) (*InboundEmail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, parseFailure(model.ProviderOther, fmt.Errorf("read envelope: %w", err))
	}

	messageID := trimMessageID(env.GetHeader("Message-ID"))
	if messageID == "" {
		return nil, parseFailure(model.ProviderOther, fmt.Errorf("missing Message-ID header"))
	}

	email := &InboundEmail{
		ExternalMessageID: messageID,
		From:              firstAddress(env.GetHeader("From")),
		To:                addressList(env.GetHeader("To")),
		Cc:                addressList(env.GetHeader("Cc")),
		Subject:           env.GetHeader("Subject"),
		ReceivedAt:        o.now().UTC(),
		BodyPreview:       strings.TrimSpace(env.Text),
	}

	thread := messageID
	if refs := strings.Fields(env.GetHeader("References")); len(refs) > 0 {
		thread = trimMessageID(refs[0])
	} else if reply := trimMessageID(env.GetHeader("In-Reply-To")); reply != "" {
		thread = reply
	}
	email.ThreadID = &thread

	if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		sent := date.UTC()
		email.SentAt = &sent
	}
	return email, nil
}

func trimMessageID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}
