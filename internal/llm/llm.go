package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pavelanni/qbank/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

var promptTagRegex = regexp.MustCompile(`(?i)</?\s*(system-instructions|topic)\b[^>]*>`)

// levelGuidance tells the model what kind of item each Bloom level calls for.
var levelGuidance = map[model.CognitiveLevel]string{
	model.LevelRemembering:   "recall of facts, terms, and definitions (use verbs like define, list, name)",
	model.LevelUnderstanding: "explanation of ideas in the student's own words (explain, describe, summarize)",
	model.LevelApplying:      "use of knowledge in a new concrete situation (apply, solve, demonstrate)",
	model.LevelAnalyzing:     "breaking material into parts and finding relationships (analyze, compare, differentiate)",
	model.LevelEvaluating:    "judging against criteria (evaluate, justify, critique)",
	model.LevelCreating:      "producing new or original work (design, construct, develop)",
}

type generationResult struct {
	Questions []model.QuestionImport `json:"questions"`
}

// Client wraps an OpenAI-compatible API client used to draft new questions
// for requirement cells the inventory does not cover.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// GenerateQuestions asks the LLM for count draft questions on a topic at the
// given cognitive level. Callers classify drafts before storing them; the
// LLM's own claim about the level is not trusted.
func (c *Client) GenerateQuestions(ctx context.Context, topic string, level model.CognitiveLevel, count int) ([]model.QuestionImport, error) {
	systemPrompt := buildGenerationSystemPrompt(topic, level, count)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Generate %d questions now.", count)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var result generationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	drafts := make([]model.QuestionImport, 0, len(result.Questions))
	for _, q := range result.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		if q.Topic == "" {
			q.Topic = topic
		}
		if q.Type == "" {
			q.Type = model.TypeShortAnswer
		}
		drafts = append(drafts, q)
	}
	return drafts, nil
}

// Ping verifies the API endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

func buildGenerationSystemPrompt(topic string, level model.CognitiveLevel, count int) string {
	var sb strings.Builder
	sb.WriteString("You are an assessment item writer for a question bank.\n\n")
	sb.WriteString("TOPIC: " + sanitizeTopic(topic) + "\n")
	sb.WriteString("COGNITIVE LEVEL: " + string(level) + "\n")
	if guidance, ok := levelGuidance[level]; ok {
		sb.WriteString("The questions must target " + guidance + ".\n")
	}
	sb.WriteString(fmt.Sprintf("\nINSTRUCTIONS:\n- Write exactly %d distinct questions on the topic above.\n", count))
	sb.WriteString("- Every question must be answerable by a student who studied the topic.\n")
	sb.WriteString("- Do not repeat or trivially rephrase a question.\n")
	sb.WriteString("- Allowed question types: mcq, true_false, essay, short_answer.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"questions": [{"text": "<question text>", "type": "<question type>", "topic": "<topic>"}]}`)
	sb.WriteString("\n")
	return sb.String()
}

func sanitizeTopic(topic string) string {
	topic = promptTagRegex.ReplaceAllString(topic, "")
	topic = strings.TrimSpace(topic)

	if topic == "" {
		return "[no topic provided]"
	}

	if utf8.RuneCountInString(topic) > 200 {
		runes := []rune(topic)
		topic = string(runes[:200])
	}

	return topic
}
