package waid

import (
	"fmt"
	"strings"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
)

// UnknownSenderID is returned when no candidate field identifies a sender.
const UnknownSenderID = "unknown@unknown"

// messageIDParts is the arity of a composite message id:
// fromMe_chat_hash_sender.
const messageIDParts = 4

// ParsedMessageID is the decomposition of a composite message id.
type ParsedMessageID struct {
	ChatID    string
	MsgHashID string
	SenderID  string
}

// ParseMessageID splits a composite id such as
// "false_120@g.us_ABC123_972501234567@c.us" into its chat, hash, and sender
// parts, with the sender's domain suffix stripped. An empty id means the
// remote value was not a string and fails with ErrMessageIDNotString; any
// arity other than four fails with ErrMessageIDFormat.
func ParseMessageID(id string) (ParsedMessageID, error) {
	if id == "" {
		return ParsedMessageID{}, errs.ErrMessageIDNotString
	}

	parts := strings.Split(id, "_")
	if len(parts) != messageIDParts {
		return ParsedMessageID{}, fmt.Errorf("%w: got %d parts", errs.ErrMessageIDFormat, len(parts))
	}

	return ParsedMessageID{
		ChatID:    parts[1],
		MsgHashID: parts[2],
		SenderID:  StripSuffix(parts[3]),
	}, nil
}

// ReadableSenderID derives a best-effort sender identifier from a message:
// the explicit sender-object id, else the sender part of the composite
// message id, else the author field, else UnknownSenderID. Suffixes are
// always stripped.
func ReadableSenderID(msg domain.RawMessage) string {
	if msg.Sender != nil && msg.Sender.ID != "" {
		return StripSuffix(msg.Sender.ID)
	}

	if parsed, err := ParseMessageID(msg.ID); err == nil && parsed.SenderID != "" {
		return parsed.SenderID
	}

	if msg.Author != "" {
		return StripSuffix(msg.Author)
	}

	return UnknownSenderID
}

// candidates builds the ordered identifier candidate list for a message: the
// author JID first, then the sender object's id, formatted name, pushname,
// and name. Phone-shaped and linked-id-shaped values are mutually exclusive
// in practice, so PhoneNumber and LinkedID share this single order.
func candidates(msg domain.RawMessage) []string {
	cands := make([]string, 0, 5)

	if msg.Author != "" {
		cands = append(cands, msg.Author)
	}

	if msg.Sender != nil {
		for _, c := range []string{msg.Sender.ID, msg.Sender.FormattedName, msg.Sender.Pushname, msg.Sender.Name} {
			if c != "" {
				cands = append(cands, c)
			}
		}
	}

	return cands
}

// PhoneNumber returns the first phone-shaped candidate of a message in
// normalized form, or ErrNoPhoneNumber. Candidates are probed after suffix
// stripping so "972501234567@c.us" matches; linked ids are skipped so their
// digit part can never be misread as a local number.
func PhoneNumber(msg domain.RawMessage) (string, error) {
	for _, c := range candidates(msg) {
		if IsLinkedID(c) {
			continue
		}

		if stripped := StripSuffix(c); IsPhoneNumber(stripped) {
			return NormalizePhone(stripped), nil
		}
	}

	return "", errs.ErrNoPhoneNumber
}

// LinkedID returns the first linked-id-shaped candidate of a message with
// its suffix stripped, or ErrNoLinkedID.
func LinkedID(msg domain.RawMessage) (string, error) {
	for _, c := range candidates(msg) {
		if IsLinkedID(c) {
			return StripSuffix(c), nil
		}
	}

	return "", errs.ErrNoLinkedID
}
