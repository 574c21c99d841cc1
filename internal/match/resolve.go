package match

import (
	"fmt"
	"strings"
)

// Strategy names the cascade step that produced a match
type Strategy string

const (
	StrategyExact    Strategy = "exact"
	StrategyTwoToken Strategy = "two_token"
	StrategySurname  Strategy = "surname"
)

// Resolution is the detailed outcome of resolving one raw name
type Resolution struct {
	ClientID   string
	Strategy   Strategy
	Candidates []string // populated when the surname step was ambiguous
	Reason     string   // why nothing was returned
}

// Found reports whether a client was resolved
func (r Resolution) Found() bool {
	return r.ClientID != ""
}

// Ambiguous reports whether several clients matched
func (r Resolution) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// Resolve returns the best-matching client id for raw, or false
func Resolve(raw string, idx *Index) (string, bool) {
	res := ResolveDetailed(raw, idx)
	return res.ClientID, res.Found()
}

// ResolveDetailed runs the cascade, each step only if the previous failed:
//  1. exact normalized full name
//  2. first+last with middle tokens dropped, for inputs of three or more tokens
//  3. surname: the input's last token equals or is contained in the surname
//     of exactly one client
//
// Step 3 matches by substring, so a short input token can hit a longer
// surname. Several candidates yield no match.
func ResolveDetailed(raw string, idx *Index) Resolution {
	tokens := Tokens(raw)
	if len(tokens) == 0 || idx == nil {
		return Resolution{Reason: "empty name"}
	}

	if id, ok := idx.Lookup(strings.Join(tokens, " ")); ok {
		return Resolution{ClientID: id, Strategy: StrategyExact}
	}

	if len(tokens) >= 3 {
		if fl, ok := firstLast(tokens); ok {
			if id, ok := idx.Lookup(fl); ok {
				return Resolution{ClientID: id, Strategy: StrategyTwoToken}
			}
		}
	}

	last := tokens[len(tokens)-1]
	var candidates []string
	seen := make(map[string]bool)
	for _, entry := range idx.surnames {
		if seen[entry.clientID] {
			continue
		}
		if entry.surname == last || strings.Contains(entry.surname, last) {
			seen[entry.clientID] = true
			candidates = append(candidates, entry.clientID)
		}
	}

	switch len(candidates) {
	case 0:
		return Resolution{Reason: fmt.Sprintf("no client matches %q", raw)}
	case 1:
		return Resolution{ClientID: candidates[0], Strategy: StrategySurname}
	default:
		return Resolution{
			Candidates: candidates,
			Reason:     fmt.Sprintf("ambiguous surname %q: %d candidates", last, len(candidates)),
		}
	}
}
