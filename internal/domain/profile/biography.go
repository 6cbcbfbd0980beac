package profile

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRun     = regexp.MustCompile(`\d+`)
	metricHeight = regexp.MustCompile(`\((\d+\.?\d*)\s*m\)`)
)

// Biography fields copied to top-level attributes when present.
var (
	personalPassthrough = []string{"alsoKnownAs", "yearsActive", "ethnicity", "nationality"}
	bodyPassthrough     = []string{"boobs", "type", "eyeColor", "hair", "underarmHair", "pubicHair"}
)

// NormalizeBiography lifts physical stats out of the nested biography into the flat
// attribute set so both schemas can be queried the same way. Stats already present
// at the top level are kept.
func NormalizeBiography(p *Profile) {
	if p.Biography == nil {
		return
	}
	body := p.Biography.Body
	personal := p.Biography.Personal

	// "100-55-84 cm" -> bust, waist, hip
	if !p.has(AttrBust) {
		if parts := digitRun.FindAllString(body["measurements"], -1); len(parts) >= 3 {
			p.SetAttr(AttrBust, parts[0])
			p.SetAttr(AttrWaist, parts[1])
			p.SetAttr(AttrHip, parts[2])
		}
	}

	// "J metric" -> "J"
	if !p.has(AttrCup) {
		if fields := strings.Fields(body["braCupSize"]); len(fields) > 0 {
			p.SetAttr(AttrCup, fields[0])
		}
	}

	if !p.has(AttrHeight) {
		if cm, ok := parseHeightCM(body["height"]); ok {
			p.SetAttr(AttrHeight, cm)
		}
	}

	// "May 25, 1987\n(age 37)" -> "May 25, 1987"
	if !p.has(AttrBirthday) {
		if born := personal["born"]; strings.TrimSpace(born) != "" {
			first, _, _ := strings.Cut(born, "\n")
			p.SetAttr(AttrBirthday, strings.TrimSpace(first))
		}
	}

	for _, k := range personalPassthrough {
		if v := personal[k]; v != "" {
			p.SetAttr(k, v)
		}
	}
	for _, k := range bodyPassthrough {
		if v := body[k]; v != "" {
			p.SetAttr(k, v)
		}
	}
}

// parseHeightCM reads "5 ft 2 in (1.57 m)" or "157 cm" as whole centimeters.
// Metric heights are truncated after adding 1e-6, so decimal meters that float
// multiplication lands just below an integer keep their written value:
// "(1.13 m)" is 113, where plain truncation of 1.13*100 would give 112.
func parseHeightCM(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if m := metricHeight.FindStringSubmatch(raw); m != nil {
		meters, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return "", false
		}
		return strconv.Itoa(int(math.Floor(meters*100 + 1e-6))), true
	}
	if strings.Contains(raw, "cm") {
		if d := digitRun.FindString(raw); d != "" {
			return d, true
		}
	}
	return "", false
}

func (p *Profile) has(key string) bool {
	return strings.TrimSpace(p.Attr(key)) != ""
}
