package sermon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rules(rep GrammarReport) []string {
	out := make([]string, len(rep.Issues))
	for i, is := range rep.Issues {
		out[i] = is.Rule
	}
	return out
}

func TestCheckCleanText(t *testing.T) {
	rep := Check("Kedves Testvérek! Ma a kegyelemről beszélünk. Az Isten szeret minket.", "B1")
	assert.Empty(t, rep.Issues)
	assert.Equal(t, 100, rep.Score)
	assert.Equal(t, 3, rep.SentenceCount)
	assert.Equal(t, 10, rep.WordCount)
}

func TestCheckArticleAgreement(t *testing.T) {
	rep := Check("A ige él. Az templom nagy.", "B1")
	require.Equal(t, []string{RuleArticle, RuleArticle}, rules(rep))
	assert.Equal(t, "Az", rep.Issues[0].Suggestion)
	assert.Equal(t, "A", rep.Issues[1].Suggestion)
	assert.Equal(t, "Az ige él. A templom nagy.", rep.CorrectedText)
	assert.Equal(t, 80, rep.Score)
}

func TestCheckCapitalizationAndPunctuation(t *testing.T) {
	rep := Check("Jó napot.  ma imádkozunk", "A1")
	assert.ElementsMatch(t, []string{RuleDoubleSpace, RuleCapitalization, RuleFinalPunctuation}, rules(rep))
	assert.Equal(t, "Jó napot. Ma imádkozunk.", rep.CorrectedText)
	// One grammar rule at 10, two style rules at 5.
	assert.Equal(t, 80, rep.Score)
}

func TestCheckOffsetsCountRunes(t *testing.T) {
	rep := Check("Áldás és békesség, a üdvösség ajándék.", "B1")
	require.Len(t, rep.Issues, 1)
	is := rep.Issues[0]
	assert.Equal(t, RuleArticle, is.Rule)
	assert.Equal(t, 19, is.Offset)
	assert.Equal(t, 1, is.Length)
	assert.Equal(t, "a", is.Excerpt)
}

func TestCheckInformalRegister(t *testing.T) {
	rep := Check("Szia! Te is hiszel?", "B1")
	assert.Equal(t, []string{RuleInformal, RuleInformal}, rules(rep))
	// Informal wording is reported but not rewritten.
	assert.Equal(t, "Szia! Te is hiszel?", rep.CorrectedText)
}

func TestCheckTheologicalSpelling(t *testing.T) {
	tests := []struct {
		word string
		want string
		bad  bool
	}{
		{"Jezus", "Jézus", true},
		{"jézus", "Jézus", true},
		{"Jézus", "", false},
		{"kegyelem", "", false},
		{"udvosseg", "üdvösség", true},
		{"Udvosseg", "Üdvösség", true},
		{"megvaltasunk", "megváltásunk", true},
		{"istentisztelet", "", false},
		{"hit", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, bad := misspelled(tt.word)
			assert.Equal(t, tt.bad, bad)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckLongSentenceDependsOnLevel(t *testing.T) {
	text := "Ma arról beszélünk hogy Isten szeret minket és megbocsát nekünk minden nap amikor hozzá fordulunk imában."
	assert.Contains(t, rules(Check(text, "A1")), RuleLongSentence)
	assert.NotContains(t, rules(Check(text, "B2")), RuleLongSentence)
}

func TestCheckScoreFloorsAtZero(t *testing.T) {
	text := "a ige a ige a ige a ige a ige a ige a ige a ige a ige a ige a ige"
	rep := Check(text, "C1")
	assert.Equal(t, 0, rep.Score)
}
