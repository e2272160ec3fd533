// Package identity builds canonical participant records from group rosters,
// merges partial identities without losing conflicting values, and resolves
// message senders against the roster.
package identity

import (
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waid"
)

const (
	// UnknownName is the display-name fallback when no name field survives
	// directional-mark stripping.
	UnknownName = "Unknown"

	// UnknownMember is the sender sentinel for messages that neither the
	// phone nor the linked-id lookup can attribute to a roster member.
	UnknownMember = "Unknown Member"
)

// Projected is a roster entry after projection. Phone is set only when the
// roster's formatted-name field itself parses as a phone number; that field
// is the authoritative phone source for roster-known members.
type Projected struct {
	ID        string
	Name      string
	ShortName string
	Pushname  string
	Phone     string
}

// ProjectRoster drops id-less entries and projects the survivors. Entries
// arriving as JSON null decode to zero values and are dropped by the same
// id check.
func ProjectRoster(raw []domain.RawParticipant) []Projected {
	out := make([]Projected, 0, len(raw))

	for _, p := range raw {
		if p.ID == "" {
			continue
		}

		proj := Projected{
			ID:        p.ID,
			Name:      p.Name,
			ShortName: p.ShortName,
			Pushname:  p.Pushname,
		}
		if waid.IsPhoneNumber(p.FormattedName) {
			proj.Phone = waid.NormalizePhone(p.FormattedName)
		}

		out = append(out, proj)
	}

	return out
}

// Canonical builds the canonical identity of a projected roster entry. The
// id loses its domain suffix; the display name is the first of name,
// pushname, shortName that survives directional-mark stripping, with
// UnknownName as the fallback; the phone comes from the projection when the
// roster supplied one, else from the id rewritten to its leading-zero local
// form when it carries the country prefix.
func Canonical(p Projected) domain.Identity {
	id := waid.StripSuffix(p.ID)

	name := UnknownName

	for _, c := range []string{p.Name, p.Pushname, p.ShortName} {
		if stripped := waid.StripDirectionalMarks(c); stripped != "" {
			name = stripped
			break
		}
	}

	phone := p.Phone
	if phone == "" {
		if local := waid.LocalForm(id); local != id {
			phone = local
		}
	}

	return domain.Identity{ID: id, Phone: phone, Name: name}
}
