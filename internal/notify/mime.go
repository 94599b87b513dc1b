package notify

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// BuildMIME renders an envelope as a single-part HTML RFC 5322 message.
func BuildMIME(env Envelope, date time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(env.From)
	if err != nil {
		return nil, fmt.Errorf("parsing from address %q: %w", env.From, err)
	}

	to := make([]*mail.Address, 0, len(env.To))
	for _, addr := range env.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(env.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, env.HTML); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}

	return buf.Bytes(), nil
}

// envelopeAddresses returns the bare addresses for SMTP MAIL FROM / RCPT TO.
func envelopeAddresses(env Envelope) (string, []string, error) {
	from, err := mail.ParseAddress(env.From)
	if err != nil {
		return "", nil, fmt.Errorf("parsing from address %q: %w", env.From, err)
	}
	to := make([]string, 0, len(env.To))
	for _, addr := range env.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return "", nil, fmt.Errorf("parsing recipient %q: %w", addr, err)
		}
		to = append(to, parsed.Address)
	}
	return from.Address, to, nil
}
