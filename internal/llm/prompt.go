package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

func proposeCuesPrompt(content string) string {
	return fmt.Sprintf(`Propose canonical "key:value" cues for the following content.
Respond with nothing but a JSON object of the form {"cues": ["key:value", ...]}.

Content:
%s`, content)
}

func extractPrompt(content string) string {
	return fmt.Sprintf(`Summarize the following content in one or two sentences and propose canonical
"key:value" cues for it. Respond with nothing but a JSON object of the form
{"summary": "...", "cues": ["key:value", ...]}.

Content:
%s`, content)
}

// extractJSONObject trims any leading/trailing prose (or markdown fences) a
// model wraps its JSON response in, returning the outermost {...} span.
func extractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("llm: no JSON object found in response")
	}
	return raw[start : end+1], nil
}

func parseCues(raw string) ([]string, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var out struct {
		Cues []string `json:"cues"`
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, fmt.Errorf("llm: decoding cues: %w", err)
	}
	return out.Cues, nil
}

func parseSummaryAndCues(raw string) (string, []string, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return "", nil, err
	}
	var out struct {
		Summary string   `json:"summary"`
		Cues    []string `json:"cues"`
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return "", nil, fmt.Errorf("llm: decoding summary+cues: %w", err)
	}
	return out.Summary, out.Cues, nil
}
