// Package canonical turns free-text material names into normalized slug keys
// used to group facts that refer to the same real-world item.
package canonical

import (
	"regexp"
	"strings"
)

// Noise phrases stripped before transliteration. The parenthesized form must
// come first so the bare word alternatives don't leave dangling parens.
var reNoise = regexp.MustCompile(`(?i)\(или аналог\)|или аналог|аналог|[«»"'„“”]`)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// translit maps Cyrillic letters to Latin digraphs. Hard and soft signs drop.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Key slugifies a material name: strip noise phrases and quotes, lower-case,
// transliterate Cyrillic, collapse every run of other characters into a single
// underscore. Key is idempotent: Key(Key(s)) == Key(s).
func Key(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reNoise.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := translit[r]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(r)
		}
	}

	s = reNonAlnum.ReplaceAllString(b.String(), "_")
	return strings.Trim(s, "_")
}
