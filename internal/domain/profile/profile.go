// Package profile models canonical per-entity profiles assembled from partial sources.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Attribute keys with tier or backfill meaning.
const (
	AttrBirthday   = "birthday"
	AttrBloodType  = "blood_type"
	AttrBust       = "bust"
	AttrWaist      = "waist"
	AttrHip        = "hip"
	AttrCup        = "cup"
	AttrTwitter    = "twitter"
	AttrHeight     = "height"
	AttrDebut      = "debut"
	AttrBirthplace = "birthplace"
	AttrSign       = "sign"
	AttrShoeSize   = "shoe_size"
	AttrHairLength = "hair_length"
	AttrHairColor  = "hair_color"
)

// Wire keys of the profile JSON documents.
const (
	keySlug       = "slug"
	keyName       = "name"
	keyNativeName = "jpName"
	keySourceID   = "_id"
	keyLink       = "link"
	keyAvatar     = "avatar"
	keyBiography  = "castWiki"
	keyTier       = "tier"
)

// Profile is a canonical or partial entity record.
// Identity fields are typed; everything else is an open attribute set.
type Profile struct {
	Slug       string
	Name       string
	NativeName string
	SourceID   string
	Link       string
	Avatar     string
	Attributes map[string]string
	Biography  *Biography
	// Extra keeps non-scalar fields the service does not interpret.
	Extra map[string]json.RawMessage
}

// Biography is the detailed, nested biography section.
type Biography struct {
	Personal map[string]string
	Body     map[string]string
	Extra    map[string]json.RawMessage
}

// NormalizeSlug returns the canonical form of a slug: trimmed and lowercase.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Attr returns an attribute value or "".
func (p *Profile) Attr(key string) string {
	return p.Attributes[key]
}

// SetAttr sets an attribute, allocating the map on first use.
func (p *Profile) SetAttr(key, value string) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]string)
	}
	p.Attributes[key] = value
}

// Tier computes the completeness tier from populated attribute groups.
func (p *Profile) Tier() Tier { return DetermineTier(p) }

// Clone returns a deep copy.
func (p *Profile) Clone() Profile {
	c := *p
	c.Attributes = maps.Clone(p.Attributes)
	c.Extra = maps.Clone(p.Extra)
	if p.Biography != nil {
		b := p.Biography.Clone()
		c.Biography = &b
	}
	return c
}

// Clone returns a deep copy.
func (b *Biography) Clone() Biography {
	return Biography{
		Personal: maps.Clone(b.Personal),
		Body:     maps.Clone(b.Body),
		Extra:    maps.Clone(b.Extra),
	}
}

// UnmarshalJSON accepts the flat batch/store document shape. Scalar attributes of any
// JSON type are kept as strings; nulls are treated as absent; "tier" is ignored.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}

	*p = Profile{}
	for key, value := range raw {
		if key == keyTier {
			continue
		}
		if key == keyBiography {
			if err := p.decodeBiography(value); err != nil {
				return err
			}
			continue
		}

		s, kind := decodeScalar(value)
		switch kind {
		case scalarNull:
			continue
		case scalarComplex:
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = value
			continue
		}

		switch key {
		case keySlug:
			p.Slug = NormalizeSlug(s)
		case keyName:
			p.Name = s
		case keyNativeName:
			p.NativeName = s
		case keySourceID:
			p.SourceID = s
		case keyLink:
			p.Link = s
		case keyAvatar:
			p.Avatar = s
		default:
			p.SetAttr(key, s)
		}
	}
	return nil
}

func (p *Profile) decodeBiography(value json.RawMessage) error {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Only an object counts as a biography section.
		if !bytes.Equal(trimmed, []byte("null")) {
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[keyBiography] = value
		}
		return nil
	}
	var b Biography
	if err := json.Unmarshal(value, &b); err != nil {
		return fmt.Errorf("decode %s: %w", keyBiography, err)
	}
	p.Biography = &b
	return nil
}

// MarshalJSON writes the flat document shape with the derived tier.
func (p Profile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+len(p.Extra)+8)
	for k, v := range p.Extra {
		out[k] = v
	}
	for k, v := range p.Attributes {
		out[k] = v
	}
	setIfNotEmpty(out, keySlug, p.Slug)
	setIfNotEmpty(out, keyName, p.Name)
	setIfNotEmpty(out, keyNativeName, p.NativeName)
	setIfNotEmpty(out, keySourceID, p.SourceID)
	setIfNotEmpty(out, keyLink, p.Link)
	setIfNotEmpty(out, keyAvatar, p.Avatar)
	if p.Biography != nil {
		out[keyBiography] = p.Biography
	}
	out[keyTier] = DetermineTier(&p)
	return json.Marshal(out)
}

// UnmarshalJSON splits the personal and body sections from everything else.
func (b *Biography) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode biography: %w", err)
	}
	*b = Biography{}
	for key, value := range raw {
		switch key {
		case "personal":
			b.Personal = decodeSection(value)
		case "body":
			b.Body = decodeSection(value)
		default:
			if b.Extra == nil {
				b.Extra = make(map[string]json.RawMessage)
			}
			b.Extra[key] = value
		}
	}
	return nil
}

// MarshalJSON writes the nested biography section.
func (b Biography) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Extra)+2)
	for k, v := range b.Extra {
		out[k] = v
	}
	if len(b.Personal) > 0 {
		out["personal"] = b.Personal
	}
	if len(b.Body) > 0 {
		out["body"] = b.Body
	}
	return json.Marshal(out)
}

func decodeSection(value json.RawMessage) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(value, &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, kind := decodeScalar(v); kind == scalarValue {
			out[k] = s
		}
	}
	return out
}

type scalarKind int

const (
	scalarValue scalarKind = iota
	scalarNull
	scalarComplex
)

func decodeScalar(value json.RawMessage) (string, scalarKind) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return "", scalarNull
	}
	switch trimmed[0] {
	case 'n':
		return "", scalarNull
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", scalarComplex
		}
		return s, scalarValue
	case '{', '[':
		return "", scalarComplex
	default:
		// numbers and booleans keep their literal text
		return string(trimmed), scalarValue
	}
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
