package domain

import (
	"strconv"
	"strings"
	"time"
)

// RawMessage represents one message as returned by the WhatsApp Web page
// projection. Fields stay close to the wire names; nothing here is trusted
// until the enrichment pipeline has validated it.
type RawMessage struct {
	ID                string          `json:"id"`
	Timestamp         EpochSeconds    `json:"t"`
	Body              string          `json:"body"`
	Content           string          `json:"content"`
	HasMedia          bool            `json:"hasMedia"`
	Author            string          `json:"author"`
	Sender            *SenderInfo     `json:"sender"`
	Quoted            *QuotedMessage  `json:"quoted"`
	QuotedParticipant string          `json:"quotedParticipant"`
	Reactions         []ReactionGroup `json:"reactions"`
}

// SenderInfo is the structured contact record attached to a message when the
// remote resolved one. Any field may be empty.
type SenderInfo struct {
	ID            string `json:"id"`
	FormattedName string `json:"formattedName"`
	Pushname      string `json:"pushname"`
	Name          string `json:"name"`
	ShortName     string `json:"shortName"`
}

// QuotedMessage is the message a reply points back to.
type QuotedMessage struct {
	ID       string `json:"id"`
	Body     string `json:"body"`
	HasMedia bool   `json:"hasMedia"`
}

// ReactionGroup aggregates one emoji and the JIDs that sent it.
type ReactionGroup struct {
	Emoji   string   `json:"emoji"`
	Senders []string `json:"senders"`
}

// RawParticipant is one roster entry as returned by the member listing.
// The formatted name may itself encode a phone number.
type RawParticipant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ShortName     string `json:"shortName"`
	Pushname      string `json:"pushname"`
	FormattedName string `json:"formattedName"`
	IsAdmin       bool   `json:"isAdmin"`
}

// Group is one entry of the group listing. MetaCount is the participant count
// embedded in the chat metadata; MemberCount is filled in later by discovery
// from the member listing and falls back to MetaCount.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MetaCount   int    `json:"metaCount"`
	MemberCount int    `json:"-"`
}

// Chat is the readiness probe result for a single chat.
type Chat struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MsgCount int    `json:"msgCount"`
}

// EpochSeconds is a message timestamp in seconds since the Unix epoch. The
// remote is loosely typed, so decoding accepts numbers and numeric strings;
// every other shape decodes to zero, which downstream validation rejects.
type EpochSeconds int64

// UnmarshalJSON never fails: a malformed timestamp degrades to zero instead
// of failing the decode of a whole page of messages.
func (e *EpochSeconds) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*e = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*e = 0
		return nil
	}

	*e = EpochSeconds(int64(f))

	return nil
}

// Valid reports whether the timestamp can appear in an export bundle.
func (e EpochSeconds) Valid() bool {
	return e > 0
}

// Time returns the timestamp as UTC time.
func (e EpochSeconds) Time() time.Time {
	return time.Unix(int64(e), 0).UTC()
}
