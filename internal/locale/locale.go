// Package locale maps culture names to Windows language identifiers.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// LangID is a Windows LANGID split into its primary and sub language parts.
type LangID struct {
	Primary uint16
	Sub     uint16
}

// Value packs the identifier as MAKELANGID does.
func (l LangID) Value() uint16 {
	return l.Sub<<10 | l.Primary
}

func (l LangID) Less(o LangID) bool {
	if l.Primary != o.Primary {
		return l.Primary < o.Primary
	}
	return l.Sub < o.Sub
}

func fromLCID(lcid uint16) LangID {
	return LangID{Primary: lcid & 0x3FF, Sub: lcid >> 10}
}

var lcids = map[string]uint16{
	"ar-SA": 0x0401,
	"cs-CZ": 0x0405,
	"da-DK": 0x0406,
	"de-AT": 0x0C07,
	"de-CH": 0x0807,
	"de-DE": 0x0407,
	"el-GR": 0x0408,
	"en-AU": 0x0C09,
	"en-CA": 0x1009,
	"en-GB": 0x0809,
	"en-US": 0x0409,
	"es-ES": 0x0C0A,
	"es-MX": 0x080A,
	"fi-FI": 0x040B,
	"fr-CA": 0x0C0C,
	"fr-FR": 0x040C,
	"he-IL": 0x040D,
	"hi-IN": 0x0439,
	"hu-HU": 0x040E,
	"it-IT": 0x0410,
	"ja-JP": 0x0411,
	"ko-KR": 0x0412,
	"nb-NO": 0x0414,
	"nl-NL": 0x0413,
	"pl-PL": 0x0415,
	"pt-BR": 0x0416,
	"pt-PT": 0x0816,
	"ru-RU": 0x0419,
	"sv-SE": 0x041D,
	"th-TH": 0x041E,
	"tr-TR": 0x041F,
	"uk-UA": 0x0422,
	"zh-CN": 0x0804,
	"zh-TW": 0x0404,
}

// Canonical returns the BCP 47 form of a culture name, e.g. "en-us" -> "en-US".
func Canonical(culture string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(culture))
	if err != nil {
		return "", fmt.Errorf("invalid culture %q: %w", culture, err)
	}
	return tag.String(), nil
}

// Lookup returns the language identifier of a culture. A culture without an
// exact entry falls back to its base language with a neutral sub language.
func Lookup(culture string) (LangID, bool) {
	name, err := Canonical(culture)
	if err != nil {
		return LangID{}, false
	}
	if lcid, ok := lcids[name]; ok {
		return fromLCID(lcid), true
	}
	tag := language.Make(name)
	base, _ := tag.Base()
	for known, lcid := range lcids {
		kb, _ := language.Make(known).Base()
		if kb == base {
			return LangID{Primary: fromLCID(lcid).Primary}, true
		}
	}
	return LangID{}, false
}
