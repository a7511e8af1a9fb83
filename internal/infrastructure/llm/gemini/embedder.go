package gemini

import (
	"context"
	"fmt"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// Embedder produces vectors from the embedding model. Passages and queries
// use asymmetric task types so retrieval quality matches the model's
// training.
type Embedder struct {
	client     *Client
	vectorSize int
}

func NewEmbedder(client *Client, vectorSize int) *Embedder {
	return &Embedder{client: client, vectorSize: vectorSize}
}

type embedContentRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedding struct {
	Values []float32 `json:"values"`
}

func (e *Embedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqs := make([]embedContentRequest, 0, len(texts))
	for _, text := range texts {
		reqs = append(reqs, embedContentRequest{
			Model:    "models/" + e.client.embedModel,
			Content:  content{Parts: []part{{Text: text}}},
			TaskType: "RETRIEVAL_DOCUMENT",
		})
	}

	var resp struct {
		Embeddings []embedding `json:"embeddings"`
	}
	path := "/models/" + e.client.embedModel + ":batchEmbedContents"
	if err := e.client.postJSON(ctx, path, batchEmbedRequest{Requests: reqs}, &resp, "embed_passages"); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if err := e.checkSize(emb.Values, fmt.Sprintf("passage %d", i)); err != nil {
			return nil, err
		}
		out = append(out, emb.Values)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	req := embedContentRequest{
		Model:    "models/" + e.client.embedModel,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: "RETRIEVAL_QUERY",
	}

	var resp struct {
		Embedding embedding `json:"embedding"`
	}
	path := "/models/" + e.client.embedModel + ":embedContent"
	if err := e.client.postJSON(ctx, path, req, &resp, "embed_query"); err != nil {
		return nil, err
	}
	if err := e.checkSize(resp.Embedding.Values, "query"); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

func (e *Embedder) checkSize(vec []float32, what string) error {
	if e.vectorSize > 0 && len(vec) != e.vectorSize {
		return domain.WrapError(domain.ErrSchemaValidation, "embed",
			fmt.Errorf("%s vector size %d, expected %d", what, len(vec), e.vectorSize))
	}
	return nil
}
