package translation

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// VertexConfig holds Vertex AI translation settings
type VertexConfig struct {
	ProjectID string // GCP project ID
	Location  string // e.g., "us-central1"
	Model     string // e.g., "general/translation-llm" or "general/nmt"
}

// VertexTranslator implements Translator using the Vertex AI Translation LLM
type VertexTranslator struct {
	cfg      VertexConfig
	client   *aiplatform.PredictionClient
	endpoint string
	model    string
}

// NewVertexTranslator creates a new Vertex AI translator
func NewVertexTranslator(ctx context.Context, cfg VertexConfig) (*VertexTranslator, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("VERTEX_PROJECT_ID is required for Vertex AI translation")
	}

	clientEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.Location)
	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(clientEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexTranslator{
		cfg:      cfg,
		client:   client,
		endpoint: vertexEndpoint(cfg),
		model:    vertexModel(cfg),
	}, nil
}

func vertexEndpoint(cfg VertexConfig) string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/cloud-translate-text",
		cfg.ProjectID, cfg.Location)
}

func vertexModel(cfg VertexConfig) string {
	return fmt.Sprintf("projects/%s/locations/%s/models/%s", cfg.ProjectID, cfg.Location, cfg.Model)
}

// Close closes the Vertex AI client
func (v *VertexTranslator) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// Translate sends a single-content prediction request
func (v *VertexTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	req, err := buildVertexRequest(v.endpoint, v.model, text, source, target)
	if err != nil {
		return "", err
	}

	resp, err := v.client.Predict(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vertex AI prediction failed: %w", err)
	}
	return parseVertexResponse(resp)
}

func buildVertexRequest(endpoint, model, text, source, target string) (*aiplatformpb.PredictRequest, error) {
	instance, err := structpb.NewStruct(map[string]interface{}{
		"source_language_code": source,
		"target_language_code": target,
		"contents":             []interface{}{text},
		"mimeType":             "text/plain",
		"model":                model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	return &aiplatformpb.PredictRequest{
		Endpoint:  endpoint,
		Instances: []*structpb.Value{structpb.NewStructValue(instance)},
	}, nil
}

func parseVertexResponse(resp *aiplatformpb.PredictResponse) (string, error) {
	if len(resp.GetPredictions()) == 0 {
		return "", fmt.Errorf("no predictions returned: %w", ErrEmptyTranslation)
	}

	predStruct := resp.Predictions[0].GetStructValue()
	if predStruct == nil {
		return "", fmt.Errorf("unexpected prediction format")
	}

	translations := predStruct.Fields["translations"].GetListValue()
	if translations == nil || len(translations.Values) == 0 {
		return "", fmt.Errorf("no translations field in prediction: %w", ErrEmptyTranslation)
	}

	first := translations.Values[0].GetStructValue()
	if first == nil {
		return "", fmt.Errorf("unexpected translation format")
	}

	out := first.Fields["translatedText"].GetStringValue()
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
