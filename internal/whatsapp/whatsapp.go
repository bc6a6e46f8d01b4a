// Package whatsapp builds the reservation hand-off deep link and dispatches
// it through a platform opener, falling back to the universal web URI when
// the app link is unsupported. A successful dispatch appends a record to the
// reservation log as a best-effort side effect.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"localvibe/internal/domain"
	"localvibe/internal/identity"
	"localvibe/internal/reservations"
)

const businessPhone = "+40723456789"

// Opener is the platform deep-link dispatch surface.
type Opener interface {
	CanOpen(uri string) bool
	Open(uri string) error
}

// MessageOptions describe the reservation being requested.
type MessageOptions struct {
	LocationID   string
	LocationName string
	Address      string
}

// BuildMessage returns the percent-encoded reservation text.
func BuildMessage(opts MessageOptions) string {
	msg := "Bună! Aș dori să fac o rezervare la " + opts.LocationName
	if opts.Address != "" {
		msg += " (" + opts.Address + ")"
	}
	msg += ". Vă rog să mă contactați pentru detalii. Mulțumesc!"
	return url.QueryEscape(msg)
}

// ChatURL is the whatsapp:// app deep link carrying the encoded message.
func ChatURL(encodedMessage string) string {
	return fmt.Sprintf("whatsapp://send?phone=%s&text=%s", businessPhone, encodedMessage)
}

// WebURL is the universal wa.me fallback carrying the encoded message.
func WebURL(encodedMessage string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", strings.TrimPrefix(businessPhone, "+"), encodedMessage)
}

// Handoff dispatches reservation deep links and records them.
type Handoff struct {
	opener Opener
	log    *reservations.Log
	logger *slog.Logger
}

// NewHandoff wires the platform opener to the reservation log.
func NewHandoff(opener Opener, log *reservations.Log, logger *slog.Logger) (*Handoff, error) {
	if opener == nil {
		return nil, errors.New("whatsapp: opener must not be nil")
	}
	if log == nil {
		return nil, errors.New("whatsapp: reservation log must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handoff{opener: opener, log: log, logger: logger}, nil
}

// OpenChat opens the WhatsApp conversation with the pre-built reservation
// message, preferring the app link and falling back to the web URI. On
// success the reservation is appended for the identity; a dispatch failure
// is surfaced with a readable message.
func (h *Handoff) OpenChat(ctx context.Context, id identity.Identity, opts MessageOptions) error {
	encoded := BuildMessage(opts)

	uri := ChatURL(encoded)
	if !h.opener.CanOpen(uri) {
		uri = WebURL(encoded)
	}
	if err := h.opener.Open(uri); err != nil {
		return fmt.Errorf("nu am putut deschide WhatsApp, verifică dacă aplicația este instalată: %w", err)
	}

	if opts.LocationID != "" {
		h.log.Append(ctx, id, domain.Reservation{
			LocationID:   opts.LocationID,
			LocationName: opts.LocationName,
			Address:      opts.Address,
			Timestamp:    nowMillis(),
		})
	}
	return nil
}

var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}
