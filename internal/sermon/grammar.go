package sermon

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/textnorm"
)

// Rule identifiers reported by Check.
const (
	RuleDoubleSpace      = "double_space"
	RuleArticle          = "article_agreement"
	RuleCapitalization   = "sentence_capitalization"
	RuleFinalPunctuation = "final_punctuation"
	RuleInformal         = "informal_register"
	RuleSpelling         = "theological_spelling"
	RuleLongSentence     = "long_sentence"
)

// Severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// grammarRules cost more than style rules in the score.
var grammarRules = []string{RuleArticle, RuleCapitalization, RuleSpelling}

// maxSentenceWords is the comfortable sentence length per level.
var maxSentenceWords = map[string]int{
	models.LevelA1: 12,
	models.LevelA2: 15,
	models.LevelB1: 20,
	models.LevelB2: 25,
	models.LevelC1: 30,
	models.LevelC2: 30,
}

// canonicalTerms are spellings learners commonly get wrong, usually by
// dropping accents. Capitalised entries are proper nouns.
var canonicalTerms = []string{
	"Isten", "Jézus", "Krisztus", "Szentlélek", "Biblia", "Szentírás",
	"kegyelem", "megváltás", "üdvösség", "bűnbocsánat", "feltámadás", "evangélium",
	"gyülekezet", "imádság", "megtérés", "kereszt", "dicsőség", "szentség", "áldás",
}

var informalWords = map[string]string{
	"te":        "Ön / testvérek",
	"ti":        "Önök / testvérek",
	"téged":     "Önt",
	"titeket":   "Önöket",
	"neked":     "Önnek",
	"nektek":    "Önöknek",
	"szia":      "Kedves Testvérek!",
	"sziasztok": "Kedves Testvérek!",
	"szevasz":   "Kedves Testvérek!",
	"hé":        "Kedves Testvérek!",
}

// GrammarReport is the outcome of Check.
type GrammarReport struct {
	Issues        []models.GrammarIssue `json:"issues"`
	Score         int                   `json:"score"`
	CorrectedText string                `json:"correctedText"`
	WordCount     int                   `json:"wordCount"`
	SentenceCount int                   `json:"sentenceCount"`
	Terms         []string              `json:"theologicalTerms"`
}

type token struct {
	word       string
	start, end int
}

type finding struct {
	issue      models.GrammarIssue
	start, end int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '-'
}

func tokenize(s string) []token {
	var out []token
	start := -1
	for i, r := range s {
		switch {
		case isWordRune(r) && start < 0:
			start = i
		case !isWordRune(r) && start >= 0:
			out = append(out, token{word: s[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, token{word: s[start:], start: start, end: len(s)})
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func startsWithVowel(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return strings.ContainsRune("aeiouáéíóöőúüűAEIOUÁÉÍÓÖŐÚÜŰ", r)
}

func isUpper(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

func capitalize(w string) string {
	r, n := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[n:]
}

func onlySpaces(s string) bool {
	return s != "" && strings.TrimSpace(s) == ""
}

// Check runs the rule-based Hungarian checks on a sermon text written by a
// learner at level.
func Check(text, level string) GrammarReport {
	toks := tokenize(text)
	var fs []finding
	add := func(rule, sev, msg string, start, end int, suggestion string) {
		fs = append(fs, finding{
			issue: models.GrammarIssue{
				Rule:       rule,
				Severity:   sev,
				Message:    msg,
				Excerpt:    text[start:end],
				Suggestion: suggestion,
			},
			start: start,
			end:   end,
		})
	}

	// Double spaces.
	for i := 0; i < len(text); {
		if text[i] != ' ' {
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] == ' ' {
			j++
		}
		if j-i > 1 {
			add(RuleDoubleSpace, SeverityLow, "공백이 두 번 이상 연속되었습니다", i, j, " ")
		}
		i = j
	}

	for i, t := range toks {
		lower := strings.ToLower(t.word)

		// Definite article agreement: "az" before vowels, "a" before consonants.
		if (lower == "a" || lower == "az") && i+1 < len(toks) && onlySpaces(text[t.end:toks[i+1].start]) {
			next := toks[i+1].word
			switch {
			case lower == "a" && startsWithVowel(next):
				sugg := "az"
				if isUpper(t.word) {
					sugg = "Az"
				}
				add(RuleArticle, SeverityHigh, "모음으로 시작하는 단어 앞에는 \"az\"를 사용해야 합니다", t.start, t.end, sugg)
			case lower == "az" && !startsWithVowel(next) && !isUpper(next):
				sugg := "a"
				if isUpper(t.word) {
					sugg = "A"
				}
				add(RuleArticle, SeverityHigh, "자음으로 시작하는 단어 앞에는 \"a\"를 사용해야 합니다", t.start, t.end, sugg)
			}
		}

		if sugg, ok := informalWords[lower]; ok {
			add(RuleInformal, SeverityMedium, "설교에서는 더 격식 있는 표현을 사용하세요", t.start, t.end, sugg)
		}

		if sugg, ok := misspelled(t.word); ok {
			add(RuleSpelling, SeverityHigh, "신학 용어의 철자를 확인하세요: "+sugg, t.start, t.end, sugg)
		}
	}

	// Sentences: capitalisation and length.
	limit := maxSentenceWords[level]
	if limit == 0 {
		limit = maxSentenceWords[models.LevelB1]
	}
	sentences := 0
	sentStart, words := -1, 0
	flush := func(end int) {
		if sentStart < 0 {
			return
		}
		sentences++
		if words > limit {
			add(RuleLongSentence, SeverityLow, "문장이 너무 깁니다. 더 짧은 문장으로 나누어 보세요", sentStart, end, "")
		}
		sentStart, words = -1, 0
	}
	ti := 0
	for i, r := range text {
		for ti < len(toks) && toks[ti].start == i {
			t := toks[ti]
			if sentStart < 0 {
				sentStart = t.start
				if !isUpper(t.word) && t.word != "-" {
					add(RuleCapitalization, SeverityMedium, "문장은 대문자로 시작해야 합니다", t.start, t.end, capitalize(t.word))
				}
			}
			words++
			ti++
		}
		if isSentenceEnd(r) {
			flush(i + utf8.RuneLen(r))
		}
	}
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	flush(len(trimmed))

	if trimmed != "" {
		last, size := utf8.DecodeLastRuneInString(trimmed)
		if !isSentenceEnd(last) && !strings.ContainsRune("\"”)»", last) {
			start := len(trimmed) - size
			add(RuleFinalPunctuation, SeverityLow, "문장 끝에 마침표를 넣으세요", start, len(trimmed), string(last)+".")
		}
	}

	slices.SortStableFunc(fs, func(a, b finding) int { return a.start - b.start })
	rep := GrammarReport{
		Issues:        make([]models.GrammarIssue, 0, len(fs)),
		CorrectedText: applyCorrections(text, fs),
		WordCount:     len(toks),
		SentenceCount: sentences,
		Terms:         []string{},
	}
	score := 100
	for _, f := range fs {
		f.issue.Offset = utf8.RuneCountInString(text[:f.start])
		f.issue.Length = utf8.RuneCountInString(text[f.start:f.end])
		rep.Issues = append(rep.Issues, f.issue)
		if slices.Contains(grammarRules, f.issue.Rule) {
			score -= 10
		} else {
			score -= 5
		}
	}
	rep.Score = max(score, 0)
	return rep
}

// misspelled reports the canonical spelling when w is a theological term
// (or an inflected form of one) written with wrong accents or, for proper
// nouns, a lowercase initial.
func misspelled(w string) (string, bool) {
	folded := textnorm.Fold(w)
	for _, c := range canonicalTerms {
		fc := textnorm.Fold(c)
		proper := isUpper(c)
		if folded == fc {
			if w == c {
				return "", false
			}
			if proper && textnorm.Normalize(w) == textnorm.Normalize(c) && isUpper(w) {
				return "", false
			}
			if !proper && textnorm.Normalize(w) == textnorm.Normalize(c) {
				return "", false
			}
			if proper {
				return c, true
			}
			if isUpper(w) {
				return capitalize(c), true
			}
			return c, true
		}
		// Inflected common nouns: compare the stem's accents only.
		if !proper && len([]rune(w)) > len([]rune(c)) && strings.HasPrefix(folded, fc) {
			stem := string([]rune(w)[:len([]rune(c))])
			if textnorm.Normalize(stem) != textnorm.Normalize(c) {
				return c + string([]rune(w)[len([]rune(c)):]), true
			}
		}
	}
	return "", false
}

// applyCorrections replaces each non-overlapping finding that carries a
// suggestion, working from the end so earlier offsets stay valid.
func applyCorrections(text string, fs []finding) string {
	out := text
	lastStart := len(text) + 1
	for i := len(fs) - 1; i >= 0; i-- {
		f := fs[i]
		if f.issue.Suggestion == "" || f.end > lastStart || f.issue.Rule == RuleInformal {
			continue
		}
		out = out[:f.start] + f.issue.Suggestion + out[f.end:]
		lastStart = f.start
	}
	return out
}
