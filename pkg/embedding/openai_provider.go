package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"veritas-data-pipeline/internal/pkg/apperror"
)

// OpenAIProvider implements Provider against the OpenAI embeddings API.
// The batch form is a single round-trip; the API guarantees one result per
// input, indexed in request order.
type OpenAIProvider struct {
	APIKey     string
	Model      string
	BaseURL    string
	dimensions int
	client     *http.Client
}

func NewOpenAIProvider(apiKey, model string, dimensions int) *OpenAIProvider {
	if model == "" {
		model = "text-embedding-ada-002"
	}
	if dimensions <= 0 {
		dimensions = 1536 // text-embedding-ada-002
	}
	return &OpenAIProvider{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    "https://api.openai.com/v1",
		dimensions: dimensions,
		client:     &http.Client{},
	}
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("openai/%s", p.Model)
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := openAIEmbeddingRequest{
		Model: p.Model,
		Input: texts,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperror.Embedding("failed to marshal openai request", err)
	}

	endpoint := fmt.Sprintf("%s/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, apperror.Embedding("failed to build openai request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.Embedding("openai request failed", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Embedding("failed to read openai response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Embedding(fmt.Sprintf("error from openai response, code %d, body %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	var openAIResp openAIEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, apperror.Embedding("failed to decode openai response", err)
	}

	if len(openAIResp.Data) != len(texts) {
		return nil, apperror.Embedding(fmt.Sprintf("openai returned %d embeddings for %d inputs", len(openAIResp.Data), len(texts)), nil)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range openAIResp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, apperror.Embedding(fmt.Sprintf("openai returned out-of-range index %d", d.Index), nil)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
