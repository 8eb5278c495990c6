// Package util provides chat formatting helpers shared by the plugin's user-facing messages.
package util

import (
	"sort"
	"strings"
)

// ColorChar prefixes a formatting code in chat text.
const ColorChar = '§'

// Chat formatting codes.
const (
	DarkRed = "§4"
	Gold    = "§6"
	Gray    = "§7"
	Green   = "§a"
	Red     = "§c"
	Yellow  = "§e"
	Bold    = "§l"
	Italic  = "§o"
	Reset   = "§r"
)

const formatCodes = "0123456789AaBbCcDdEeFfKkLlMmNnOoRrXx"

// TranslateColorCodes replaces altChar followed by a valid format code with the
// real formatting prefix. Config files use '&' since '§' is awkward to type.
func TranslateColorCodes(altChar rune, text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == altChar && strings.ContainsRune(formatCodes, runes[i+1]) {
			runes[i] = ColorChar
			runes[i+1] = []rune(strings.ToLower(string(runes[i+1])))[0]
		}
	}
	return string(runes)
}

// StripColor removes all formatting codes from text.
func StripColor(text string) string {
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == ColorChar {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// FormatTemplate substitutes {name} placeholders. Unknown placeholders are left as-is.
func FormatTemplate(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Contains reports whether slice holds str.
func Contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// FilterPrefix returns the candidates starting with prefix, compared case-insensitively.
func FilterPrefix(candidates []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
		}
	}
	return out
}
