package processing

import "strings"

// InvestmentTerms widen recall in communities dedicated to the company, where
// posts rarely repeat the ticker itself.
var InvestmentTerms = []string{"stock", "shares", "invest", "investment", "investing"}

// ExpandTerms returns the search terms for a community. Native communities get
// InvestmentTerms appended after the ticker terms; duplicates keep their
// first position.
func ExpandTerms(community string, terms, native []string) []string {
	expanded := make([]string, 0, len(terms)+len(InvestmentTerms))
	seen := make(map[string]struct{}, cap(expanded))

	add := func(list []string) {
		for _, term := range list {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			expanded = append(expanded, term)
		}
	}

	add(terms)
	if isNative(community, native) {
		add(InvestmentTerms)
	}
	return expanded
}

func isNative(community string, native []string) bool {
	for _, n := range native {
		if strings.EqualFold(n, community) {
			return true
		}
	}
	return false
}
