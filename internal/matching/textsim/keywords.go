// internal/matching/textsim/keywords.go
package textsim

import "sort"

// stopwords are tokens too common to identify an item. The CJK entries
// cover the function characters that dominate short Chinese
// descriptions.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "in": {}, "on": {}, "at": {}, "of": {},
	"my": {}, "i": {}, "it": {}, "is": {}, "was": {}, "and": {}, "or": {},
	"to": {}, "for": {}, "with": {}, "near": {}, "lost": {}, "found": {},
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {},
	"个": {}, "一": {}, "不": {}, "人": {}, "都": {}, "把": {}, "被": {},
}

// Keywords extracts up to max distinctive tokens from a text, most
// frequent first. Ties keep their order of first appearance, so a
// title's leading words surface ahead of later repeats.
func Keywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}

	tokens := Tokenize(text)
	type entry struct {
		token string
		count int
		first int
	}
	byToken := make(map[string]*entry)
	order := make([]*entry, 0, len(tokens))

	for i, t := range tokens {
		if _, skip := stopwords[t]; skip {
			continue
		}
		if e, ok := byToken[t]; ok {
			e.count++
			continue
		}
		e := &entry{token: t, count: 1, first: i}
		byToken[t] = e
		order = append(order, e)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > max {
		order = order[:max]
	}
	out := make([]string, len(order))
	for i, e := range order {
		out[i] = e.token
	}
	return out
}
