package query

import "strings"

// SearchQuery is one phrase sent to a provider together with the number
// of results wanted for it.
type SearchQuery struct {
	Phrase string
	Limit  int
}

// Build pairs subject with each variant, in order. An empty variant
// produces the bare subject. Phrases are not deduplicated.
func Build(subject string, variants []string, limit int) []SearchQuery {
	subject = collapse(subject)
	if subject == "" {
		return nil
	}
	if len(variants) == 0 {
		return []SearchQuery{{Phrase: subject, Limit: limit}}
	}

	queries := make([]SearchQuery, 0, len(variants))
	for _, variant := range variants {
		phrase := collapse(subject + " " + variant)
		queries = append(queries, SearchQuery{Phrase: phrase, Limit: limit})
	}
	return queries
}

func FromPhrases(phrases []string, limit int) []SearchQuery {
	queries := make([]SearchQuery, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = collapse(phrase)
		if phrase == "" {
			continue
		}
		queries = append(queries, SearchQuery{Phrase: phrase, Limit: limit})
	}
	return queries
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
