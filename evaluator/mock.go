package evaluator

import (
	"context"
	"encoding/json"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// MockLLMClient returns a fixed, well-formed grading JSON. Used in tests
// and when running without an API key.
type MockLLMClient struct{}

func (MockLLMClient) Generate(_ context.Context, _ string) (string, error) {
	out, err := json.Marshal(models.Evaluation{
		Scores: models.Scores{
			Politeness: 4,
			Clarity:    4,
			Accuracy:   4,
			Empathy:    4,
		},
		Comment:     "全体的に丁寧な対応です。専門用語の解説も分かりやすく、顧客の不安を解消できています。",
		Evidence:    "「ご不安なお気持ち、お察しいたします」という発言が寄り添いを感じさせます。",
		Improvement: "保留時間が少し長かったため、途中経過の報告があるとより良いです。",
		BookingID:   "240815-012",
		TourCode:    "02841",
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
