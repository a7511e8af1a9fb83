package gemini

import (
	"context"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// AnswerGenerator synthesizes a reply strictly from retrieved line items.
// Callers guarantee the item list is non-empty; the empty case is answered
// upstream without touching the model.
type AnswerGenerator struct {
	client *Client
}

func NewAnswerGenerator(client *Client) *AnswerGenerator {
	return &AnswerGenerator{client: client}
}

func (g *AnswerGenerator) GenerateAnswer(ctx context.Context, question string, items []domain.ScoredLineItem) (string, error) {
	return g.client.generateText(ctx, "generate_answer", buildAnswerPrompt(question, items))
}
