// Package evaluator sends a case's content to a grading LLM and parses
// the scorecard it returns.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
	"github.com/ryoyaiwata8-sudo/mail-review/transcript"
)

// LLMClient generates a completion for a prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Evaluator grades cases through an LLMClient.
type Evaluator struct {
	llm LLMClient
}

func New(llm LLMClient) *Evaluator {
	return &Evaluator{llm: llm}
}

// EvaluateCase builds the QA prompt from the case's interactions,
// queries the LLM and decodes the JSON grading. An undecodable response
// is an error; the caller decides whether to stub the result.
func (e *Evaluator) EvaluateCase(ctx context.Context, c *models.Case) (*models.Evaluation, error) {
	prompt := buildPrompt(c)

	response, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("evaluating case %s: %w", c.CaseID, err)
	}

	var eval models.Evaluation
	cleaned := transcript.StripJSONFences(response)
	if err := json.Unmarshal([]byte(cleaned), &eval); err != nil {
		return nil, fmt.Errorf("parsing evaluation for case %s: %w", c.CaseID, err)
	}
	return &eval, nil
}

func buildPrompt(c *models.Case) string {
	var conversation strings.Builder
	for _, i := range c.Interactions {
		fmt.Fprintf(&conversation, "[%s] %s\nSubject: %s\nBody/Transcript: %s\n---\n",
			i.Channel, i.Timestamp.Format("2006-01-02 15:04:05"), i.Subject, i.Body)
	}

	return fmt.Sprintf(`You are a QA Specialist. Evaluate the following customer support interaction.
Interaction:
%s

Output JSON with scores (politeness, clarity, accuracy, empathy, each 1-5), comment, evidence, and improvement.
Also extract booking_id and tour_code when a reservation number or tour code appears in the text; use "" when absent.
Respond in Japanese. Output MUST be valid JSON only.`, conversation.String())
}
