// Package fuzzy implements the token-set similarity matching the
// dispatcher uses for activation/deactivation/exit phrases and fast-path
// intent matching. matchr ships Jaro-Winkler and several phonetic
// algorithms but no packaged "fuzzywuzzy"-style token-set ratio (see
// DESIGN.md), so the token-set assembly here is hand-rolled and only the
// pairwise string comparison is delegated to matchr.JaroWinkler, the
// same delegation MrWong99-glyphoxa uses for its own best-pairwise-token
// strategy.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Score returns a 0-100 similarity between a and b using the token-set
// ratio algorithm: both strings are split into a set of lowercase words,
// then compared via their sorted intersection plus each side's leftover
// tokens, so filler words present in one string but absent from the
// other ("hey assist, uh, open notepad" vs "open notepad") do not depress
// the score the way a plain whole-string comparison would.
func Score(a, b string) float64 {
	aTokens := tokenize(a)
	bTokens := tokenize(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	aSet := toSet(aTokens)
	bSet := toSet(bTokens)
	intersection := sortedIntersection(aSet, bSet)
	aOnly := sortedDifference(aSet, bSet)
	bOnly := sortedDifference(bSet, aSet)

	sortedCombined := strings.Join(intersection, " ")
	aCombined := strings.TrimSpace(sortedCombined + " " + strings.Join(aOnly, " "))
	bCombined := strings.TrimSpace(sortedCombined + " " + strings.Join(bOnly, " "))

	best := ratio(sortedCombined, aCombined)
	if s := ratio(sortedCombined, bCombined); s > best {
		best = s
	}
	if s := ratio(aCombined, bCombined); s > best {
		best = s
	}
	return best
}

// Matches reports whether a and b score at or above thresholdPercent
// (0-100), the configured assistant.fuzzy_match_threshold.
func Matches(a, b string, thresholdPercent int) bool {
	return Score(a, b) >= float64(thresholdPercent)
}

// BestMatch scores utterance against every candidate phrase and returns
// the highest score found, or 0 if candidates is empty.
func BestMatch(utterance string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if s := Score(utterance, c); s > best {
			best = s
		}
	}
	return best
}

// AnyMatches reports whether utterance fuzzy-matches any candidate phrase
// at or above thresholdPercent.
func AnyMatches(utterance string, candidates []string, thresholdPercent int) bool {
	for _, c := range candidates {
		if Matches(utterance, c, thresholdPercent) {
			return true
		}
	}
	return false
}

func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return matchr.JaroWinkler(a, b, false) * 100
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(s)))
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func sortedIntersection(a, b map[string]struct{}) []string {
	var out []string
	for t := range a {
		if _, ok := b[t]; ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func sortedDifference(a, b map[string]struct{}) []string {
	var out []string
	for t := range a {
		if _, ok := b[t]; !ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
