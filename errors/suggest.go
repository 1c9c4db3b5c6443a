package errors

import (
	"sort"
	"strconv"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion is a suggested replacement and the number of edits it makes.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar returns the names within a few edits of name, closest
// first. Names are case sensitive. The edit budget grows with the length of
// the name, from one edit up to three.
func SuggestSimilar(name string, candidates []string) []Suggestion {
	if name == "" {
		return nil
	}
	budget := min(max(len(name)/3, 1), 3)
	var out []Suggestion
	seen := map[string]bool{}
	for _, candidate := range candidates {
		if candidate == "" || candidate == name || seen[candidate] {
			continue
		}
		seen[candidate] = true
		if d := editDistance(name, candidate); d <= budget {
			out = append(out, Suggestion{Value: candidate, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// swizzleAliases are the color and texture-coordinate letter sets other
// shading languages accept for xyzw.
var swizzleAliases = [...]string{"xyzw", "rgba", "stpq"}

// SuggestSwizzle suggests the xyzw selector for a swizzle written with
// color or texture letters or in upper case, as long as every component
// exists on a vector of the given width.
func SuggestSwizzle(swizzle string, components int) []Suggestion {
	if len(swizzle) == 0 || len(swizzle) > 4 {
		return nil
	}
	lower := strings.ToLower(swizzle)
	var b strings.Builder
	edits := 0
	for i := 0; i < len(lower); i++ {
		idx := -1
		for _, set := range swizzleAliases {
			if idx = strings.IndexByte(set, lower[i]); idx >= 0 {
				break
			}
		}
		if idx < 0 || idx >= components {
			return nil
		}
		b.WriteByte(swizzleAliases[0][idx])
		if swizzleAliases[0][idx] != swizzle[i] {
			edits++
		}
	}
	if edits == 0 {
		return nil
	}
	return []Suggestion{{Value: b.String(), Distance: edits}}
}

// FormatSuggestions renders suggestions as a hint, or "" when there are
// none.
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean " + strconv.Quote(suggestions[0].Value) + "?"
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = strconv.Quote(s.Value)
	}
	last := len(quoted) - 1
	return "did you mean " + strings.Join(quoted[:last], ", ") + " or " + quoted[last] + "?"
}

// editDistance counts the insertions, deletions, substitutions and
// adjacent transpositions that turn a into b.
func editDistance(a, b string) int {
	// d[i][j] is the distance between a[:i] and b[:j].
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(a)][len(b)]
}
