package binding

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Path syntax constants.
const (
	// Separator splits the segments of an internal control path.
	Separator = "/"

	// DottedSeparator splits the segments of a persisted override path.
	DottedSeparator = "."

	// NullBinding is the persisted sentinel for an explicit unbind.
	NullBinding = "null"

	// UnboundLabel is the display label of an unbound part.
	UnboundLabel = "None"
)

// TitleCase upper-cases the first letter of every word and leaves the rest
// untouched, so acronyms such as "UI" survive.
func TitleCase(s string) string {
	// A Caser carries state and must not be shared between goroutines.
	return cases.Title(language.English, cases.NoLower).String(s)
}

// ToDisplay converts an internal control path into a player-facing label.
//
//	"<Keyboard>/leftShift"   -> "Left Shift"
//	"<Gamepad>/dpad/up"      -> "Dpad Up"
//	"<XRController>/UIPress" -> "UI Press"
//	"space"                  -> "Space"
func ToDisplay(path string) string {
	idx := strings.Index(path, Separator)
	if idx < 0 {
		return TitleCase(strings.TrimSpace(path))
	}

	control := strings.ReplaceAll(path[idx+1:], Separator, " ")
	control = splitAcronyms(splitCamel(control))
	return TitleCase(strings.Join(strings.Fields(control), " "))
}

// splitCamel inserts a space at every lower→upper transition.
func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsLower(runes[i-1]) && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitAcronyms inserts a space where an acronym runs into a Pascal-case
// word: "UIButton" -> "UI Button".
func splitAcronyms(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && i+1 < len(runes) &&
			unicode.IsUpper(runes[i-1]) && unicode.IsUpper(r) && unicode.IsLower(runes[i+1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToInternal converts a dotted override path into the internal syntax:
// "Keyboard.Space" -> "<Keyboard>/Space".
func ToInternal(dotted string) string {
	dotted = strings.TrimSpace(dotted)
	if dotted == "" {
		return ""
	}
	segments := strings.Split(dotted, DottedSeparator)
	head := "<" + segments[0] + ">"
	if len(segments) == 1 {
		return head
	}
	return head + Separator + strings.Join(segments[1:], Separator)
}

// PrettyPath is the inverse of ToInternal: "<Keyboard>/Space" ->
// "Keyboard.Space". The unbound path pretty-prints as NullBinding.
func PrettyPath(internal string) string {
	if internal == "" {
		return NullBinding
	}
	segments := strings.Split(internal, Separator)
	segments[0] = strings.TrimSuffix(strings.TrimPrefix(segments[0], "<"), ">")
	return strings.Join(segments, DottedSeparator)
}
