package enrich

// Body sentinels. Both literals are part of the export schema contract and
// recognized by the downstream annotation tooling.
const (
	// MediaPlaceholder replaces the body of any media message, and the
	// quoted body of replies that point at media.
	MediaPlaceholder = "<Media Message (Truncated)>"

	// NoTextPlaceholder is the body of a text message with no usable text;
	// the body field is never empty in output.
	NoTextPlaceholder = "[No text]"
)

// Drop reasons for messages excluded from the bundle.
const (
	DropReasonTimestamp = "invalid_timestamp"
	DropReasonWindow    = "before_window"
)

// Log field names.
const (
	fieldMsgID  = "msg_id"
	fieldReason = "reason"
)
