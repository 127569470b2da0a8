package mapping

import (
	"strings"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
)

// Vocabulary holds the master taxonomy's pre-extracted NLP token sets used
// by NLPQualifierStrategy (§4.9 strategy 2). Building and refreshing it is
// the concern of a separate extraction job (not this package); Vocabulary
// is just the lookup structure the strategy consults.
type Vocabulary struct {
	// StrongHeads maps a strong-occupation head phrase (folded, space
	// joined) to the master node id it identifies outright.
	StrongHeads map[string]int64

	// QualifiedHeads maps a head phrase to the set of master node ids it
	// can resolve to once qualified by a prefix/suffix qualifier.
	QualifiedHeads map[string][]int64

	// Qualifiers is the set of recognized qualifier tokens (e.g.
	// "registered", "licensed", "certified").
	Qualifiers map[string]bool
}

// NewVocabulary returns an empty Vocabulary ready to be populated.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		StrongHeads:    make(map[string]int64),
		QualifiedHeads: make(map[string][]int64),
		Qualifiers:     make(map[string]bool),
	}
}

func tokenize(value string) []string {
	return strings.Fields(normalize.Fold(value))
}

func (v *Vocabulary) isQualifier(token string) bool {
	return v.Qualifiers[token]
}
