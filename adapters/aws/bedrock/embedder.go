package bedrock

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go/ptr"

	"github.com/pdfkb/pdfkb/embedding"
)

// EmbeddingModelID represents available Bedrock embedding models
type EmbeddingModelID string

const (
	TitanEmbedText   EmbeddingModelID = "amazon.titan-embed-text-v1"
	TitanEmbedTextV2 EmbeddingModelID = "amazon.titan-embed-text-v2:0"
)

// BedrockEmbedder implements embedding.Embedder on Bedrock Titan models
type BedrockEmbedder struct {
	client *bedrockruntime.Client
	model  EmbeddingModelID
}

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func NewBedrockEmbedder(client *bedrockruntime.Client, model EmbeddingModelID) *BedrockEmbedder {
	if model == "" {
		model = TitanEmbedText
	}
	return &BedrockEmbedder{
		client: client,
		model:  model,
	}
}

// EmbedDocuments implements the Embedder interface. Titan models take one
// input per invocation, so documents are embedded sequentially.
func (e *BedrockEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}

	embeddings := make([][]float32, len(documents))
	for i, doc := range documents {
		vector, err := e.invoke(ctx, "EmbedDocuments", doc)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vector
	}

	return embeddings, nil
}

// EmbedQuery implements the Embedder interface
func (e *BedrockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}
	return e.invoke(ctx, "EmbedQuery", text)
}

func (e *BedrockEmbedder) invoke(ctx context.Context, op, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text})
	if err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeInternal,
			"failed to marshal request")
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     ptr.String(string(e.model)),
		ContentType: ptr.String("application/json"),
		Accept:      ptr.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError,
			"Bedrock invocation failed")
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError,
			"failed to unmarshal response")
	}

	if len(resp.Embedding) == 0 {
		return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError,
			"no embedding returned from model")
	}

	return resp.Embedding, nil
}
