// Package locale resolves the persisted UI locale against the languages the
// app ships.
package locale

import (
	"golang.org/x/text/language"
)

// Default is used when nothing usable is stored.
var Default = language.English

// Supported lists the shipped locales; the first entry is the fallback.
var Supported = []language.Tag{
	language.English,
	language.Arabic,
	language.Hebrew,
}

var matcher = language.NewMatcher(Supported)

// Resolve maps a stored BCP 47 value (for example "ar-PS" or "he") to the
// closest supported tag. Empty, malformed or unsupported values give Default.
func Resolve(raw string) language.Tag {
	if raw == "" {
		return Default
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return Default
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// IsRTL reports whether tag is written right to left.
func IsRTL(tag language.Tag) bool {
	base, _ := tag.Base()
	switch base.String() {
	case "ar", "he", "fa", "ur":
		return true
	}
	return false
}
