package match

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/avelinas/repomatch/internal/domain"
)

// candidateScore is one scorer entry. Field names are fixed by the prompt
// contract; decoding is lenient about value types since models drift.
type candidateScore struct {
	CandidateID   string   `json:"candidateId"`
	MatchScore    float64  `json:"match_score"`
	KeyMatches    []string `json:"key_matches"`
	MissingSkills []string `json:"missing_skills"`
	Explanation   string   `json:"explanation"`
}

type jobAnalysis struct {
	SkillsRequired  []string `json:"skills_required"`
	ExperienceLevel string   `json:"experience_level"`
	JobType         string   `json:"job_type"`
}

// parseScorerResponse decodes the batch scoring payload. A response without
// a matches list is treated as zero matches, not an error; a response that
// is not a JSON object at all is a malformed-output failure.
func parseScorerResponse(raw string) ([]candidateScore, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	items, ok := data["matches"]
	if !ok {
		return nil, nil
	}

	var entries []candidateScore
	if err := decodeLoose(items, &entries); err != nil {
		return nil, domain.NewFailure(domain.MalformedScorerOutput, "scorer matches list has unexpected shape", err)
	}
	return entries, nil
}

func parseAnalysisResponse(raw string) (*jobAnalysis, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	item, ok := data["analysis"]
	if !ok {
		return nil, domain.Failf(domain.MalformedScorerOutput, "scorer response has no analysis object")
	}

	var analysis jobAnalysis
	if err := decodeLoose(item, &analysis); err != nil {
		return nil, domain.NewFailure(domain.MalformedScorerOutput, "scorer analysis object has unexpected shape", err)
	}
	return &analysis, nil
}

func decodeObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, domain.NewFailure(domain.MalformedScorerOutput, "scorer response is not a JSON object", err)
	}
	return data, nil
}

// decodeLoose tolerates numeric strings and other mild type drift in the
// scorer output.
func decodeLoose(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// extractJSON strips markdown code fences that models like to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
