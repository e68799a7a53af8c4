package beat

import (
	"regexp"
	"slices"
)

// Denylist is an ordered list of whole words that must never appear in a
// beat. Matching is case-insensitive and respects word boundaries, so
// "painting" does not match "pain". The first term found, in list order,
// is the one reported.
type Denylist []string

var defaultDenylist = Denylist{
	// fear and danger
	"scary", "terrified", "horror", "nightmare", "monster", "ghost", "demon",
	"witch", "evil", "wicked", "creepy", "haunted", "scream", "shriek",

	// violence
	"kill", "murder", "blood", "weapon", "sword", "gun", "fight", "attack",
	"destroy", "punch", "stab", "wound", "hurt", "pain",

	// death and sadness
	"death", "dead", "die", "dying", "funeral", "grave", "cry", "crying",
	"tears", "sob",

	// isolation and darkness
	"alone", "abandoned", "lost", "trapped", "prison", "dungeon", "dark",
	"darkness",

	// denigrating
	"stupid", "hate", "ugly", "dumb", "idiot", "fat", "loser",
}

// DefaultDenylist returns a copy of the built-in English denylist. Callers
// may append to it and pass the result to WithDenylist.
func DefaultDenylist() Denylist {
	return slices.Clone(defaultDenylist)
}

type compiledTerm struct {
	term    string
	pattern *regexp.Regexp
}

func (d Denylist) compile() []compiledTerm {
	terms := make([]compiledTerm, 0, len(d))
	for _, term := range d {
		if term == "" {
			continue
		}
		terms = append(terms, compiledTerm{
			term:    term,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return terms
}
