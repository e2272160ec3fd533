// Package enrich orders, validates, and decorates raw crawled messages with
// resolved senders, reply linkage, and reaction summaries, producing the
// canonical records of an export bundle.
package enrich

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/identity"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waid"
)

// Settings tunes one pipeline instance.
type Settings struct {
	// Since drops messages older than the bound. The zero value disables the
	// window. The window is an enrichment filter only and never changes how
	// pages are fetched.
	Since time.Time
}

// Stats counts what one Enrich call did. DistinctSenders counts the
// senders observed across the kept messages, resolved or not; history may
// legitimately contain more senders than the current roster.
type Stats struct {
	Enriched         int
	DroppedTimestamp int
	DroppedWindow    int
	UnknownSenders   int
	DistinctSenders  int
}

// Pipeline is a pure transformation from raw messages to enriched ones. One
// instance serves one group run; the resolver carries that group's roster.
type Pipeline struct {
	resolver *identity.Resolver
	settings Settings
	logger   zerolog.Logger
}

// New creates a pipeline over a group's member resolver.
func New(resolver *identity.Resolver, settings Settings, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		settings: settings,
		logger:   logger,
	}
}

// decorated pairs one enriched record with the ordering key it keeps only
// until the final sort. The timestamp is not part of the public schema and is
// dropped by the projection step.
type decorated struct {
	msg domain.EnrichedMessage
	ts  domain.EpochSeconds
}

// Enrich sorts the input by ascending timestamp, decorates every valid
// message, drops the invalid ones, re-sorts, and assigns dense serial
// numbers. The second sort is defensive: the final order must hold even if a
// per-message resolution step ever reorders the working set. The input slice
// is not mutated; ties keep arrival order throughout.
func (p *Pipeline) Enrich(raws []domain.RawMessage) ([]domain.EnrichedMessage, Stats) {
	var stats Stats

	sorted := make([]domain.RawMessage, len(raws))
	copy(sorted, raws)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	kept := make([]decorated, 0, len(sorted))
	senders := make(map[string]struct{})

	for _, raw := range sorted {
		if !raw.Timestamp.Valid() {
			stats.DroppedTimestamp++
			observability.MessagesDropped.WithLabelValues(DropReasonTimestamp).Inc()
			p.logger.Debug().Str(fieldMsgID, raw.ID).Str(fieldReason, DropReasonTimestamp).Msg("Message dropped")

			continue
		}

		if !p.settings.Since.IsZero() && raw.Timestamp.Time().Before(p.settings.Since) {
			stats.DroppedWindow++
			observability.MessagesDropped.WithLabelValues(DropReasonWindow).Inc()

			continue
		}

		m := p.enrichOne(raw, &stats)
		senders[senderKey(m.Sender, raw)] = struct{}{}

		kept = append(kept, decorated{msg: m, ts: raw.Timestamp})
	}

	stats.DistinctSenders = len(senders)

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ts < kept[j].ts
	})

	out := make([]domain.EnrichedMessage, 0, len(kept))

	for i, d := range kept {
		d.msg.SerialNumber = i + 1
		out = append(out, d.msg)
	}

	stats.Enriched = len(out)

	return out, stats
}

// senderKey identifies a sender for the distinct-sender count: the canonical
// member id when resolved, else the best-effort readable id of the message.
func senderKey(ref domain.SenderRef, raw domain.RawMessage) string {
	if ref.Identity != nil {
		return ref.Identity.ID
	}

	return waid.ReadableSenderID(raw)
}

func (p *Pipeline) enrichOne(raw domain.RawMessage, stats *Stats) domain.EnrichedMessage {
	sender := p.resolver.ResolveSender(raw)
	if sender.Identity == nil {
		stats.UnknownSenders++
		observability.UnknownSenders.Inc()
	}

	return domain.EnrichedMessage{
		Datetime:  raw.Timestamp.Time().Format(time.RFC3339),
		MessageID: messageID(raw),
		Sender:    sender,
		Body:      body(raw),
		ReplyTo:   p.replyTo(raw),
		Reactions: reactions(raw),
	}
}

// messageID extracts the message hash from the composite id, falling back to
// the raw id string when it does not parse.
func messageID(raw domain.RawMessage) string {
	parsed, err := waid.ParseMessageID(raw.ID)
	if err != nil {
		return raw.ID
	}

	return parsed.MsgHashID
}

// body applies the extraction policy: media messages always yield the media
// placeholder; text messages fall back through body, then content, then the
// no-text placeholder.
func body(raw domain.RawMessage) string {
	if raw.HasMedia {
		return MediaPlaceholder
	}

	if raw.Body != "" {
		return raw.Body
	}

	if raw.Content != "" {
		return raw.Content
	}

	return NoTextPlaceholder
}

// replyTo builds the reply reference when a quoted message and a quoted
// participant are both present. The quoted author resolves like a sender and
// may stay a raw token; a quoted media body is truncated to the placeholder.
func (p *Pipeline) replyTo(raw domain.RawMessage) *domain.ReplyReference {
	if raw.Quoted == nil || raw.QuotedParticipant == "" {
		return nil
	}

	quotedBody := raw.Quoted.Body
	if raw.Quoted.HasMedia {
		quotedBody = MediaPlaceholder
	}

	return &domain.ReplyReference{
		Ref:    raw.Quoted.ID,
		Author: p.resolver.ResolveRef(raw.QuotedParticipant),
		Body:   quotedBody,
	}
}

// reactions summarizes each reaction group. A message without reactions
// yields nil so the field marshals as null, never as an empty list.
func reactions(raw domain.RawMessage) []domain.ReactionSummary {
	if len(raw.Reactions) == 0 {
		return nil
	}

	out := make([]domain.ReactionSummary, 0, len(raw.Reactions))

	for _, g := range raw.Reactions {
		reactedBy := make([]string, 0, len(g.Senders))
		for _, s := range g.Senders {
			reactedBy = append(reactedBy, waid.StripSuffix(s))
		}

		out = append(out, domain.ReactionSummary{
			Emoji:     g.Emoji,
			Count:     len(g.Senders),
			ReactedBy: reactedBy,
		})
	}

	return out
}
