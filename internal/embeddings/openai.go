// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package embeddings

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// Config holds OpenAI embedding gateway configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Model   string // e.g. "text-embedding-3-small"
}

// Compile-time interface check.
var _ Embedder = (*OpenAI)(nil)

// OpenAI implements Embedder using the OpenAI Embeddings API.
type OpenAI struct {
	client openaisdk.Client
	model  string
}

// NewOpenAI creates an OpenAI embedding gateway. Returns an error if the API
// key or model is missing.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embeddings: missing api_key in config")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai embeddings: missing model in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// No retry at this layer: a failed embedding drops the chunk or
		// query instead of being retried.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{client: openaisdk.NewClient(opts...), model: cfg.Model}, nil
}

// Embed requests an embedding for text. No retry: a transient upstream
// failure surfaces as an error and the caller drops the chunk or query.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, parleyerr.New(parleyerr.CodeEmbedRequestInvalid, "empty text")
	}

	resp, err := o.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
		Model: openaisdk.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, parleyerr.Wrapf(err, parleyerr.CodeEmbedUpstreamFailure, "embedding with %s", o.model)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, parleyerr.New(parleyerr.CodeEmbedEmptyVector, "embedding service returned no vector")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, x := range raw {
		vec[i] = float32(x)
	}
	return vec, nil
}
