package domain

// ReplyReference links a message to the message it replies to. Author may
// remain an unresolved raw token when no roster match exists.
type ReplyReference struct {
	Ref    string    `json:"ref"`
	Author SenderRef `json:"author"`
	Body   string    `json:"body"`
}

// ReactionSummary aggregates one reaction group on a message.
type ReactionSummary struct {
	Emoji     string   `json:"emoji"`
	Count     int      `json:"count"`
	ReactedBy []string `json:"reactedBy"`
}

// EnrichedMessage is the canonical per-message record of an export bundle.
// Reactions stays nil when the message has none, so it marshals as null and
// never as an empty list.
type EnrichedMessage struct {
	SerialNumber int               `json:"serialNumber"`
	Datetime     string            `json:"datetime"`
	MessageID    string            `json:"messageId"`
	Sender       SenderRef         `json:"sender"`
	Body         string            `json:"body"`
	ReplyTo      *ReplyReference   `json:"replyTo,omitempty"`
	Reactions    []ReactionSummary `json:"reactions"`
}

// BundleMetadata describes the group a bundle was exported from.
type BundleMetadata struct {
	GroupName        string `json:"groupName"`
	GroupID          string `json:"groupId"`
	ParticipantCount int    `json:"participantCount"`
	MessageCount     int    `json:"messageCount"`
	ExportDate       string `json:"exportDate"`
}

// ExportBundle is the per-group export artifact. Its field names are a
// compatibility contract with the downstream annotation tooling and must not
// change.
type ExportBundle struct {
	Metadata     BundleMetadata    `json:"metadata"`
	Messages     []EnrichedMessage `json:"messages"`
	Participants []MergedIdentity  `json:"participants"`
}
