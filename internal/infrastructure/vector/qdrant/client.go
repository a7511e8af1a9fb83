package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// Client stores line items as points whose payload mirrors the line-item
// fields. Filter stages and the vector stage of a plan are sent as one
// request: a search when a query vector is present, a scroll otherwise.
type Client struct {
	baseURL    string
	collection string
	vectorSize int
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
}

func New(baseURL, collection string, vectorSize int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexLineItems(ctx context.Context, items []domain.StoredLineItem) error {
	if len(items) == 0 {
		return nil
	}

	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(items))
	for _, item := range items {
		payload := map[string]any{
			"invoice_id":  item.InvoiceID,
			"page_number": item.PageNumber,
			"description": item.Description,
			"section":     item.Section,
			"search_text": item.SearchText,
		}
		if item.ItemCode != "" {
			payload["item_code"] = item.ItemCode
		}
		if item.DeliveryDate != "" {
			payload["delivery_date"] = item.DeliveryDate
		}
		if item.Quantity != nil {
			payload["quantity"] = *item.Quantity
		}
		if item.QuantityUnit != "" {
			payload["quantity_unit"] = item.QuantityUnit
		}
		if item.UnitPrice != nil {
			payload["unit_price"] = *item.UnitPrice
		}
		if item.LineTotal != nil {
			payload["line_total"] = *item.LineTotal
		}
		points = append(points, point{ID: item.ID, Vector: item.Vector, Payload: payload})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

// Hit is one raw point returned by the collection, before invoice metadata
// is hydrated in.
type Hit struct {
	Score   float64
	Payload map[string]any
}

// Query executes the line-item side of a plan in a single round trip.
// invoiceIDs, when non-nil, is the pre-resolved invoice filter; the payload
// filter and the optional vector search are combined server-side.
func (c *Client) Query(ctx context.Context, plan domain.QueryPlan, queryVector []float32, invoiceIDs []string) ([]Hit, error) {
	filter := buildFilter(plan, invoiceIDs)

	if len(queryVector) > 0 {
		return c.search(ctx, queryVector, filter, plan.Limit)
	}
	return c.scroll(ctx, filter, plan.Limit)
}

func (c *Client) search(ctx context.Context, vector []float32, filter map[string]any, limit int) ([]Hit, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		reqBody["filter"] = filter
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.post(ctx, "/points/search", reqBody, &searchResp); err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, Hit{Score: r.Score, Payload: r.Payload})
	}
	return out, nil
}

func (c *Client) scroll(ctx context.Context, filter map[string]any, limit int) ([]Hit, error) {
	reqBody := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		reqBody["filter"] = filter
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.post(ctx, "/points/scroll", reqBody, &scrollResp); err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		out = append(out, Hit{Payload: p.Payload})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// buildFilter maps the plan's line-item stages plus the pre-resolved invoice
// ID set to a qdrant filter. Invoice-level stages never reach the payload
// filter; they were already narrowed to invoiceIDs.
func buildFilter(plan domain.QueryPlan, invoiceIDs []string) map[string]any {
	var must []map[string]any

	if invoiceIDs != nil {
		must = append(must, map[string]any{
			"key":   "invoice_id",
			"match": map[string]any{"any": invoiceIDs},
		})
	}

	pageRange := map[string]any{}
	for _, f := range plan.Filters {
		switch f.Field {
		case "page_number":
			if v, err := strconv.Atoi(f.Value); err == nil {
				must = append(must, map[string]any{
					"key":   "page_number",
					"match": map[string]any{"value": v},
				})
			}
		case "min_page":
			if v, err := strconv.Atoi(f.Value); err == nil {
				pageRange["gte"] = v
			}
		case "max_page":
			if v, err := strconv.Atoi(f.Value); err == nil {
				pageRange["lte"] = v
			}
		case "description":
			must = append(must, map[string]any{
				"key":   "description",
				"match": map[string]any{"text": f.Value},
			})
		}
	}
	if len(pageRange) > 0 {
		must = append(must, map[string]any{"key": "page_number", "range": pageRange})
	}

	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensuredCollection {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured()
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured()
	return nil
}

func (c *Client) markCollectionEnsured() {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
}

// PayloadString reads a payload value as a string.
func PayloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// PayloadFloat reads a payload value as a float pointer, nil when absent.
func PayloadFloat(payload map[string]any, key string) *float64 {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

// PayloadInt reads a payload value as an int, zero when absent.
func PayloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
