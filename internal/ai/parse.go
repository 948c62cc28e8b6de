package ai

import (
	"encoding/json"
	"strings"

	"github.com/scamshield/scamshield/internal/model"
)

// rawResult mirrors the JSON the model is asked to emit. RedFlagsFixed stays
// raw so a missing or non-numeric value can fall back to len(differences).
type rawResult struct {
	OriginalMessage string               `json:"original_message"`
	SafeVersion     string               `json:"safe_version"`
	Differences     []model.Difference   `json:"differences"`
	RedFlagsFixed   json.RawMessage      `json:"red_flags_fixed"`
	ToneComparison  model.ToneComparison `json:"tone_comparison"`
	KeyLearning     string               `json:"key_learning"`
}

func parseError(msg string) error {
	return model.NewError(model.CodeAIService, "unparseable AI response: "+msg, nil)
}

// parseResult extracts the first candidate's text from a generateContent
// envelope, locates the embedded JSON object and validates it.
func parseResult(body []byte) (*model.AnalysisResult, error) {
	var envelope generateResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, parseError("invalid response envelope")
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, parseError("no candidates in response")
	}
	text := envelope.Candidates[0].Content.Parts[0].Text

	block, ok := extractJSONBlock(text)
	if !ok {
		return nil, parseError("no JSON object in model output")
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, parseError("model output is not valid JSON")
	}
	if raw.OriginalMessage == "" || raw.SafeVersion == "" {
		return nil, parseError("missing original_message or safe_version")
	}
	if len(raw.Differences) == 0 {
		return nil, parseError("empty differences")
	}
	if raw.ToneComparison.Scam == "" || raw.ToneComparison.Official == "" {
		return nil, parseError("incomplete tone_comparison")
	}

	redFlags := redFlagsOrFallback(raw.RedFlagsFixed, len(raw.Differences))

	return &model.AnalysisResult{
		OriginalMessage: raw.OriginalMessage,
		SafeVersion:     raw.SafeVersion,
		Differences:     raw.Differences,
		RedFlagsFixed:   redFlags,
		ToneComparison:  raw.ToneComparison,
		KeyLearning:     raw.KeyLearning,
	}, nil
}

// redFlagsOrFallback decodes the red_flags_fixed value, substituting the
// difference count when it is missing or non-numeric, and clamps to [0,10].
func redFlagsOrFallback(raw json.RawMessage, differenceCount int) int {
	n := differenceCount
	if len(raw) > 0 {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			n = int(f)
		}
	}
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}
	return n
}

// extractJSONBlock returns the first balanced top-level {...} block in text.
// Braces inside JSON strings are ignored.
func extractJSONBlock(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
