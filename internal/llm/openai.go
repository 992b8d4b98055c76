// Package llm implements the external language-model collaborators:
// the patient reply generator, the guidance generator, and the
// classification oracle. All callers must tolerate failure; the scoring
// rules in particular fall back to deterministic matching.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/scoring"
)

// Config holds client settings. Empty fields fall back to the
// OPENAI_API_KEY and OPENAI_MODEL environment variables, then defaults.
type Config struct {
	APIKey string
	Model  string
}

// Client calls the OpenAI API for replies, hints, and classification.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient constructs an OpenAI-backed client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		api:    openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// PatientReply generates the virtual patient's next utterance.
func (c *Client) PatientReply(ctx context.Context, def *clinicalcase.Definition, level int, revealed encounter.RevealedFacts, history []encounter.Message, input string) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: patientSystemPrompt(def, level, revealed)},
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == encounter.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if len(history) == 0 || history[len(history)-1].Content != input {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input})
	}

	return c.complete(ctx, msgs, 0.7)
}

// Hint asks for an optional teaching nudge; nil means no hint this turn.
func (c *Client) Hint(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition, lastInput, lastReply string) (*encounter.Hint, error) {
	prompt := fmt.Sprintf(guidancePrompt, lastInput, lastReply)
	out, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0.3)
	if err != nil {
		return nil, err
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, "NONE") {
		return nil, nil
	}
	return &encounter.Hint{Type: "coaching", Message: out}, nil
}

// ClassifyDiagnosis implements the scoring oracle for diagnoses. Any
// transport failure or off-label answer becomes
// scoring.ErrClassificationUnavailable.
func (c *Client) ClassifyDiagnosis(ctx context.Context, submitted, primary string, differentials []string) (scoring.DiagnosisLabel, error) {
	prompt := fmt.Sprintf(diagnosisClassifyPrompt, primary, joinOrNone(differentials), submitted)
	out, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scoring.ErrClassificationUnavailable, err)
	}

	label := scoring.DiagnosisLabel(strings.ToUpper(firstWord(out)))
	switch label {
	case scoring.LabelPrimary, scoring.LabelDifferential, scoring.LabelIncorrect:
		return label, nil
	}
	if c.logger != nil {
		c.logger.Warn("unparseable diagnosis label", "output", out)
	}
	return "", fmt.Errorf("%w: unexpected label %q", scoring.ErrClassificationUnavailable, out)
}

// ClassifyIntervention implements the scoring oracle for interventions.
func (c *Client) ClassifyIntervention(ctx context.Context, intervention, diagnosis string) (scoring.InterventionLabel, error) {
	prompt := fmt.Sprintf(interventionClassifyPrompt, diagnosis, intervention)
	out, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scoring.ErrClassificationUnavailable, err)
	}

	label := scoring.InterventionLabel(strings.ToUpper(firstWord(out)))
	switch label {
	case scoring.LabelAppropriate, scoring.LabelPartial, scoring.LabelInappropriate:
		return label, nil
	}
	if c.logger != nil {
		c.logger.Warn("unparseable intervention label", "output", out)
	}
	return "", fmt.Errorf("%w: unexpected label %q", scoring.ErrClassificationUnavailable, out)
}

func (c *Client) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func firstWord(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;!")
}
