package ingest

import (
	"bufio"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/bec-analyzer/internal/core"
)

// ParseMessage parses a raw RFC 5322 message into an interaction record.
// A missing or unparseable Date header falls back to the supplied
// receive time so the core never sees a zero timestamp.
func ParseMessage(r io.Reader, received time.Time) (core.Email, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return core.Email{}, fmt.Errorf("failed to parse message: %w", err)
	}

	email := core.Email{
		From:      parseAddress(msg.Header.Get("From")),
		To:        parseAddress(msg.Header.Get("To")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		MessageID: trimMessageID(msg.Header.Get("Message-Id")),
		InReplyTo: trimMessageID(msg.Header.Get("In-Reply-To")),
	}

	ts, err := msg.Header.Date()
	if err != nil || ts.IsZero() {
		ts = received
	}
	email.Timestamp = ts
	_, offsetSeconds := ts.Zone()
	email.TimezoneOffset = offsetSeconds / 60

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return core.Email{}, fmt.Errorf("failed to extract message body: %w", err)
	}
	email.Body = body

	email.HasPaymentRequest, email.AmountRequested = DetectPaymentRequest(email.Subject, email.Body)

	return email, nil
}

// parseAddress extracts the bare address from a header value, falling
// back to the trimmed raw value when it is not RFC 5322 clean.
func parseAddress(value string) string {
	if value == "" {
		return ""
	}
	// Take the first address of a list
	if idx := strings.Index(value, ","); idx > 0 {
		value = value[:idx]
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return strings.ToLower(addr.Address)
}

func trimMessageID(value string) string {
	return strings.Trim(strings.TrimSpace(value), "<>")
}
