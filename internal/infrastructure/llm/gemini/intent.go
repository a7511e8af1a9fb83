package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// IntentResolver classifies a natural-language question into a structured
// intent: which tool to run and with which filter values.
type IntentResolver struct {
	client *Client
}

func NewIntentResolver(client *Client) *IntentResolver {
	return &IntentResolver{client: client}
}

func (r *IntentResolver) Resolve(ctx context.Context, query string) (domain.Intent, error) {
	raw, err := r.client.generateJSON(ctx, "resolve_intent", buildIntentPrompt(query))
	if err != nil {
		return domain.Intent{}, err
	}

	var intent domain.Intent
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &intent); err != nil {
		return domain.Intent{}, domain.WrapError(domain.ErrSchemaValidation, "resolve_intent",
			fmt.Errorf("parse intent payload: %w", err))
	}

	switch intent.Kind {
	case domain.KindLineItems, domain.KindInvoiceMetadata:
	case "":
		intent.Kind = domain.KindLineItems
	default:
		return domain.Intent{}, domain.WrapError(domain.ErrSchemaValidation, "resolve_intent",
			fmt.Errorf("unknown result kind %q", intent.Kind))
	}

	if intent.SemanticQuery == "" && len(intent.Filters) == 0 {
		// A question with no recognizable filters still retrieves by
		// meaning.
		intent.SemanticQuery = query
	}
	return intent, nil
}
