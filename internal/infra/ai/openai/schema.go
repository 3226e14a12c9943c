package openai

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// correctionsPayload is the structured response both model passes must
// return.
type correctionsPayload struct {
	Corrections []corrections.Candidate `json:"corrections"`
}

// strippedCandidate is a candidate without its confidence score, which is
// not meaningful for the validator to re-judge.
type strippedCandidate struct {
	IssueType       corrections.IssueType `json:"issue_type"`
	OriginalText    string                `json:"original_text"`
	CorrectedText   string                `json:"corrected_text"`
	SurroundingText string                `json:"surrounding_text"`
	Explanation     string                `json:"explanation_for_correction"`
	Severity        corrections.Severity  `json:"severity"`
}

var candidateSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"issue_type": {
			Type: jsonschema.String,
			Enum: []string{"spelling", "grammar", "style", "consistency"},
		},
		"original_text": {
			Type:        jsonschema.String,
			Description: "Original text, verbatim",
		},
		"corrected_text": {
			Type:        jsonschema.String,
			Description: "Corrected text to replace the original text",
		},
		"surrounding_text": {
			Type:        jsonschema.String,
			Description: "Surrounding text containing the original text, limit to 100 characters",
		},
		"explanation_for_correction": {
			Type: jsonschema.String,
		},
		"probability_of_correctness": {
			Type:        jsonschema.Number,
			Description: "Probability of correctness, between 0.0 and 1.0",
		},
		"severity": {
			Type: jsonschema.String,
			Enum: []string{"critical", "important", "minor"},
		},
	},
	Required: []string{
		"issue_type", "original_text", "corrected_text", "surrounding_text",
		"explanation_for_correction", "probability_of_correctness", "severity",
	},
	AdditionalProperties: false,
}

var correctionsSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"corrections": {
			Type:  jsonschema.Array,
			Items: &candidateSchema,
		},
	},
	Required:             []string{"corrections"},
	AdditionalProperties: false,
}
