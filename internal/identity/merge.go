package identity

import "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"

// Merge combines two partial identities field by field. When both sides
// define a field with different values, a's value stays under the primary key
// and b's value is preserved under the alt-prefixed key; when only one side
// defines a field, that value becomes primary. Swapping the arguments swaps
// which side is primary but never loses information.
func Merge(a, b domain.Identity) domain.MergedIdentity {
	var merged domain.MergedIdentity

	merged.ID, merged.AltID = mergeField(a.ID, b.ID)
	merged.Phone, merged.AltPhone = mergeField(a.Phone, b.Phone)
	merged.Name, merged.AltName = mergeName(a.Name, b.Name)

	return merged
}

func mergeField(a, b string) (primary, alt string) {
	switch {
	case a == "":
		return b, ""
	case b == "" || a == b:
		return a, ""
	default:
		return a, b
	}
}

// mergeName treats the UnknownName token as absent, so a structured name
// from either side wins and the token survives only when neither side has
// one.
func mergeName(a, b string) (primary, alt string) {
	aReal := a != "" && a != UnknownName
	bReal := b != "" && b != UnknownName

	switch {
	case aReal && bReal:
		return mergeField(a, b)
	case aReal:
		return a, ""
	case bReal:
		return b, ""
	case a != "" || b != "":
		return UnknownName, ""
	default:
		return "", ""
	}
}
