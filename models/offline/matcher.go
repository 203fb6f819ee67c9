package offline

import (
	"strings"
	"unicode"
)

// keyword is one compiled matcher term.
//
//	"hack*"        word prefix  (hack, hacked, hackers)
//	"*attack*"     infix        (attack, cyberattack, attackers)
//	"who are you"  phrase       (whole words, in order)
//	"ai"           whole word
type keyword struct {
	words  []string
	prefix bool // last word may continue
	suffix bool // first word may be preceded by other letters
}

func compileKeyword(raw string) keyword {
	raw = strings.ToLower(strings.TrimSpace(raw))
	prefix := strings.HasSuffix(raw, "*")
	raw = strings.TrimSuffix(raw, "*")
	suffix := strings.HasPrefix(raw, "*")
	raw = strings.TrimPrefix(raw, "*")
	return keyword{words: tokenize(raw), prefix: prefix, suffix: suffix}
}

func compileKeywords(raw []string) []keyword {
	out := make([]keyword, 0, len(raw))
	for _, r := range raw {
		if k := compileKeyword(r); len(k.words) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// tokenize lowercases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matches reports whether the keyword occurs in tokens. For phrases only the
// last word honours the prefix flag and only the first word the suffix flag.
func (k keyword) matches(tokens []string) bool {
	n := len(k.words)
	for i := 0; i+n <= len(tokens); i++ {
		ok := true
		for j, w := range k.words {
			if !k.wordMatches(j, w, tokens[i+j]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (k keyword) wordMatches(j int, w, t string) bool {
	first, last := j == 0 && k.suffix, j == len(k.words)-1 && k.prefix
	switch {
	case first && last:
		return strings.Contains(t, w)
	case last:
		return strings.HasPrefix(t, w)
	case first:
		return strings.HasSuffix(t, w)
	default:
		return t == w
	}
}

func matchesAny(keywords []keyword, tokens []string) bool {
	for _, k := range keywords {
		if k.matches(tokens) {
			return true
		}
	}
	return false
}
