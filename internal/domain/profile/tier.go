package profile

import "strings"

// Tier is a derived completeness rank of a profile.
type Tier float64

// Tier levels.
const (
	TierNone      Tier = 0   // no avatar
	TierAvatar    Tier = 1   // avatar only
	TierBasic     Tier = 2   // avatar and basic stats
	TierExtended  Tier = 2.5 // avatar and extended stats
	TierBiography Tier = 3   // avatar and detailed biography
)

// BasicKeys populate tier 2.
var BasicKeys = []string{
	AttrBirthday, AttrBloodType, AttrBust, AttrWaist, AttrHip, AttrCup, AttrTwitter, AttrHeight,
}

// ExtendedKeys populate tier 2.5 unless they hold the "?" placeholder.
var ExtendedKeys = []string{
	AttrDebut, AttrBirthplace, AttrSign, AttrShoeSize, AttrHairLength, AttrHairColor,
}

// DetermineTier grades a profile. A biography only counts alongside an avatar.
func DetermineTier(p *Profile) Tier {
	if strings.TrimSpace(p.Avatar) == "" {
		return TierNone
	}
	if p.Biography != nil {
		return TierBiography
	}
	for _, k := range ExtendedKeys {
		v := strings.TrimSpace(p.Attr(k))
		if v != "" && v != "?" {
			return TierExtended
		}
	}
	for _, k := range BasicKeys {
		if strings.TrimSpace(p.Attr(k)) != "" {
			return TierBasic
		}
	}
	return TierAvatar
}
