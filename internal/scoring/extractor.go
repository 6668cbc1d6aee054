package scoring

import "strings"

// KeywordMatch records which dictionary entries matched a text, for the
// snapshot breakdown.
type KeywordMatch struct {
	Matched []string `json:"matched,omitempty"`
	Count   int      `json:"count"`
	Score   float64  `json:"score"`
}

// SignalExtractor matches a keyword dictionary against free text. It is
// an interface so dictionaries and matching rules can be swapped or
// localized without touching the weighting formula.
type SignalExtractor interface {
	// Match returns the dictionary entries found in text. Text is
	// expected lowercase; entries are matched as literal substrings.
	Match(text string, dictionary []string) []string
}

// substringExtractor is the default extractor: lowercase literal
// substring matching, which handles both single keywords and multi-word
// phrases across mixed-language text.
type substringExtractor struct{}

// NewSubstringExtractor creates the default SignalExtractor.
func NewSubstringExtractor() SignalExtractor {
	return substringExtractor{}
}

func (substringExtractor) Match(text string, dictionary []string) []string {
	var matched []string
	for _, keyword := range dictionary {
		if keyword == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		}
	}
	return matched
}

// matchScore builds a KeywordMatch with a linear count-based score:
// perMatch points per matched keyword, capped at 100.
func matchScore(extractor SignalExtractor, text string, dictionary []string, perMatch float64) KeywordMatch {
	matched := extractor.Match(text, dictionary)
	score := float64(len(matched)) * perMatch
	if score > 100 {
		score = 100
	}
	return KeywordMatch{
		Matched: matched,
		Count:   len(matched),
		Score:   score,
	}
}
