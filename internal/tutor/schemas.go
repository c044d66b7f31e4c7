package tutor

import "github.com/starford/hunlearn/internal/llm"

func str() map[string]any { return map[string]any{"type": "string", "minLength": 1} }

func strs(minItems int) map[string]any {
	return map[string]any{"type": "array", "minItems": minItems, "items": str()}
}

func object(props map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{"type": "object", "properties": props, "required": req, "additionalProperties": false}
}

func exampleList(minItems int) map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": minItems,
		"items": object(map[string]any{
			"hungarian": str(),
			"korean":    str(),
			"context":   map[string]any{"type": "string"},
		}, "hungarian", "korean", "context"),
	}
}

var grammarAnswerSchema = &llm.Schema{
	Name:        "grammar-answer",
	Description: "Korean explanation of a Hungarian grammar question with examples",
	Definition: object(map[string]any{
		"explanation":    str(),
		"examples":       exampleList(1),
		"commonMistakes": strs(0),
		"tips":           strs(0),
	}, "explanation", "examples", "commonMistakes", "tips"),
}

var vocabularySchema = &llm.Schema{
	Name:        "vocabulary-explanation",
	Description: "Explanation of a Hungarian word for a Korean learner",
	Definition: object(map[string]any{
		"word":             str(),
		"meaning":          str(),
		"examples":         exampleList(0),
		"etymology":        map[string]any{"type": "string"},
		"usage":            map[string]any{"type": "string"},
		"synonyms":         strs(0),
		"antonyms":         strs(0),
		"theologicalUsage": map[string]any{"type": "string"},
	}, "word", "meaning", "examples", "etymology", "usage", "synonyms", "antonyms", "theologicalUsage"),
}

var feedbackSchema = &llm.Schema{
	Name:        "writing-feedback",
	Description: "Corrections and assessment of a learner's Hungarian text",
	Definition: object(map[string]any{
		"strengths":     strs(0),
		"correctedText": str(),
		"corrections": map[string]any{
			"type": "array",
			"items": object(map[string]any{
				"category":    map[string]any{"type": "string", "enum": []any{"grammar", "vocabulary", "expression", "theology"}},
				"original":    str(),
				"suggestion":  str(),
				"explanation": str(),
			}, "category", "original", "suggestion", "explanation"),
		},
		"advice": str(),
		"score":  map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
	}, "strengths", "correctedText", "corrections", "advice", "score"),
}

var examplesSchema = &llm.Schema{
	Name:        "grammar-examples",
	Description: "Example sentences for a Hungarian grammar point",
	Definition: object(map[string]any{
		"examples": exampleList(1),
		"pattern":  str(),
	}, "examples", "pattern"),
}

var adviceSchema = &llm.Schema{
	Name:        "study-advice",
	Description: "Personal study plan for a Korean learner of Hungarian",
	Definition: object(map[string]any{
		"strategies": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": object(map[string]any{
				"area":       str(),
				"method":     str(),
				"activities": strs(1),
				"weeks":      map[string]any{"type": "integer", "minimum": 1},
			}, "area", "method", "activities", "weeks"),
		},
		"dailyPlan":   strs(1),
		"weeklyFocus": strs(0),
		"resources":   strs(0),
		"sermonTips":  strs(0),
	}, "strategies", "dailyPlan", "weeklyFocus", "resources", "sermonTips"),
}
