package identity

import (
	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waid"
)

const fieldSenderID = "sender_id"

// Resolver indexes a group's canonical members by normalized phone and by
// suffix-stripped id for sender lookups. It is built once per group run and
// read-only afterwards.
type Resolver struct {
	members []domain.MergedIdentity
	byPhone map[string]int
	byID    map[string]int
	logger  zerolog.Logger
}

// NewResolver projects the roster, canonicalizes every entry, and merges
// entries that collide on phone or id so each member appears once.
func NewResolver(roster []domain.RawParticipant, logger zerolog.Logger) *Resolver {
	r := &Resolver{
		byPhone: make(map[string]int),
		byID:    make(map[string]int),
		logger:  logger,
	}

	for _, proj := range ProjectRoster(roster) {
		r.add(Canonical(proj))
	}

	return r
}

// Members returns the merged member records in roster order, for the export
// bundle's participants list.
func (r *Resolver) Members() []domain.MergedIdentity {
	return r.members
}

// Count returns the number of distinct members after merging.
func (r *Resolver) Count() int {
	return len(r.members)
}

// ResolveSender attributes a message to a roster member by its normalized
// phone, then by its linked id. When neither resolves it returns the
// UnknownMember sentinel; an unresolved sender never fails the pipeline.
func (r *Resolver) ResolveSender(msg domain.RawMessage) domain.SenderRef {
	if phone, err := waid.PhoneNumber(msg); err == nil {
		if m, ok := r.byKey(phone); ok {
			return domain.ResolvedSender(m.Identity)
		}
	}

	if lid, err := waid.LinkedID(msg); err == nil {
		if m, ok := r.byKey(lid); ok {
			return domain.ResolvedSender(m.Identity)
		}
	}

	r.logger.Debug().Str(fieldSenderID, waid.ReadableSenderID(msg)).Msg("Sender not in roster")

	return domain.RawSender(UnknownMember)
}

// ResolveRef resolves a bare JID, such as a quoted participant, the same way
// a sender is resolved. The suffix-stripped token is returned raw when no
// member matches.
func (r *Resolver) ResolveRef(jid string) domain.SenderRef {
	stripped := waid.StripSuffix(jid)

	key := stripped
	if waid.IsPhoneNumber(stripped) {
		key = waid.NormalizePhone(stripped)
	}

	if m, ok := r.byKey(key); ok {
		return domain.ResolvedSender(m.Identity)
	}

	return domain.RawSender(stripped)
}

// byKey consults the phone index first, then the id index. Phone-derived
// member ids are digit strings, so a normalized phone can legitimately match
// either index.
func (r *Resolver) byKey(key string) (domain.MergedIdentity, bool) {
	if key == "" {
		return domain.MergedIdentity{}, false
	}

	if idx, ok := r.byPhone[key]; ok {
		return r.members[idx], true
	}

	if idx, ok := r.byID[key]; ok {
		return r.members[idx], true
	}

	return domain.MergedIdentity{}, false
}

func (r *Resolver) add(ident domain.Identity) {
	if idx, ok := r.collision(ident); ok {
		existing := r.members[idx]
		merged := Merge(existing.Identity, ident)

		// A previous merge may already have filled an alt slot; keep it
		// unless this merge produced a fresher conflict.
		if merged.AltID == "" {
			merged.AltID = existing.AltID
		}

		if merged.AltPhone == "" {
			merged.AltPhone = existing.AltPhone
		}

		if merged.AltName == "" {
			merged.AltName = existing.AltName
		}

		r.members[idx] = merged
		r.index(idx, merged)

		return
	}

	merged := domain.MergedIdentity{Identity: ident}
	r.members = append(r.members, merged)
	r.index(len(r.members)-1, merged)
}

func (r *Resolver) collision(ident domain.Identity) (int, bool) {
	if idx, ok := r.byID[ident.ID]; ok && ident.ID != "" {
		return idx, true
	}

	if idx, ok := r.byPhone[ident.Phone]; ok && ident.Phone != "" {
		return idx, true
	}

	return 0, false
}

func (r *Resolver) index(idx int, m domain.MergedIdentity) {
	for _, id := range []string{m.ID, m.AltID} {
		if id != "" {
			r.byID[id] = idx
		}
	}

	for _, phone := range []string{m.Phone, m.AltPhone} {
		if phone != "" {
			r.byPhone[phone] = idx
		}
	}
}
