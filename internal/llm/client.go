// Package llm wraps the OpenAI API behind the narrow capabilities the
// pipeline needs: embeddings, structured extraction, and streamed
// grounded generation. All clients are constructed explicitly and
// passed into components; there are no package-level singletons.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dang-hang/fleet-wise-aide/internal/detect"
	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/segment"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for extraction and generation
	DefaultChatModel = openai.GPT4o

	extractionMaxTokens = 1000
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoChoices is returned when the API responds without choices
	ErrNoChoices = errors.New("no choices in completion response")
)

// API is the subset of the OpenAI client the wrapper depends on.
type API interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// Config holds explicit client configuration.
type Config struct {
	APIKey              string
	ChatModel           string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// Client wraps the OpenAI API client.
type Client struct {
	api            API
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
}

// NewClient creates a Client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a Client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:            openai.NewClient(cfg.APIKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
	}
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

const vehicleSystemPrompt = `Extract vehicle information from user queries.

Return JSON:
{
  "year": 2020,
  "make": "Honda",
  "model": "Civic"
}

Omit any field that is not mentioned. Expand common make abbreviations
(Chevy -> Chevrolet). If the query names only a model, return just the
model.`

// ExtractVehicleContext pulls {year, make, model} from a free-text
// query. Absent fields stay zero-valued.
func (c *Client) ExtractVehicleContext(ctx context.Context, query string) (domain.VehicleContext, error) {
	content, err := c.complete(ctx, vehicleSystemPrompt, query, 100)
	if err != nil {
		return domain.VehicleContext{}, err
	}

	var vehicle domain.VehicleContext
	if err := decodeJSON(content, &vehicle); err != nil {
		return domain.VehicleContext{}, fmt.Errorf("failed to parse vehicle context: %w", err)
	}
	return vehicle, nil
}

const outlineSystemPrompt = `You segment vehicle repair manuals from their front matter
(title page, table of contents, chapter list).

Return a JSON array of sections covering the document:
[
  {"name": "Engine", "first_page": 12, "page_count": 40, "heading_level": 1}
]

Rules:
- first_page is 1-indexed and must not exceed the total page count
- heading_level 1 for chapters, 2-6 for nested headings
- Return [] if the text contains no usable structure.`

// ExtractOutline implements segment.OutlineExtractor.
func (c *Client) ExtractOutline(ctx context.Context, frontMatter string, totalPages int) ([]segment.OutlineEntry, error) {
	user := fmt.Sprintf("Total pages: %d\n\nFront matter:\n%s", totalPages, frontMatter)
	content, err := c.complete(ctx, outlineSystemPrompt, user, extractionMaxTokens)
	if err != nil {
		return nil, err
	}

	var entries []segment.OutlineEntry
	if err := decodeJSON(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}
	return entries, nil
}

const captionSystemPrompt = `You identify figures, diagrams, schematics, and tables
referenced in repair-manual page text.

Return a JSON array:
[
  {"label": "Figure 3.1", "description": "Brake caliper assembly exploded view", "type": "figure"}
]

type is "figure" or "table". Return [] when the page references none.`

// ExtractCaptions implements detect.CaptionExtractor.
func (c *Client) ExtractCaptions(ctx context.Context, pageText string) ([]detect.Caption, error) {
	content, err := c.complete(ctx, captionSystemPrompt, pageText, 500)
	if err != nil {
		return nil, err
	}

	var captions []detect.Caption
	if err := decodeJSON(content, &captions); err != nil {
		return nil, fmt.Errorf("failed to parse captions: %w", err)
	}
	return captions, nil
}

// StreamCompletion streams a grounded answer, invoking onDelta for
// every content token as it arrives. Rate-limit and quota errors are
// classified into their domain error kinds so callers can distinguish
// them.
func (c *Client) StreamCompletion(ctx context.Context, system string, history []domain.ChatMessage, onDelta func(delta string) error) error {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return classifyGenerationError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, context.Canceled) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return classifyGenerationError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", classifyGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// decodeJSON unmarshals model output, tolerating markdown code fences
// around the JSON body.
func decodeJSON(content string, v interface{}) error {
	return json.Unmarshal([]byte(stripCodeFence(content)), v)
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if idx := strings.Index(trimmed, "```json"); idx >= 0 {
		trimmed = trimmed[idx+len("```json"):]
	} else if idx := strings.Index(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[idx+len("```"):]
	} else {
		return trimmed
	}
	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
