package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/verdant/pkg/formatting"
)

// MaxScore is the upper bound of a health score.
const MaxScore = 5.0

// ErrScoreRange indicates a judgment score outside [0, MaxScore].
var ErrScoreRange = errors.New("score out of range")

type classifyResponse struct {
	IsPlant *bool `json:"is_plant"`
}

type judgeResponse struct {
	Score   *float64 `json:"score"`
	Disease string   `json:"disease"`
	Advice  string   `json:"advice"`
}

// Model implements Classifier and Judge with a language model reached
// through go-agents. An agent is created per call; the config is shared.
type Model struct {
	cfg *gaconfig.AgentConfig
}

func NewModel(cfg *gaconfig.AgentConfig) *Model {
	return &Model{cfg: cfg}
}

func (m *Model) Classify(ctx context.Context, description string) (bool, error) {
	prompt, err := renderPrompt(classifyPrompt, promptData{Description: description})
	if err != nil {
		return false, err
	}

	content, err := m.chat(ctx, prompt)
	if err != nil {
		return false, err
	}

	return ParseClassification(content)
}

func (m *Model) Judge(ctx context.Context, description, userText string) (Judgment, error) {
	prompt, err := renderPrompt(judgePrompt, promptData{
		Description: description,
		UserText:    userText,
	})
	if err != nil {
		return Judgment{}, err
	}

	content, err := m.chat(ctx, prompt)
	if err != nil {
		return Judgment{}, err
	}

	return ParseJudgment(content)
}

func (m *Model) chat(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(m.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Content(), nil
}

// ParseClassification reads a model reply of the form {"is_plant": bool},
// optionally wrapped in a markdown code fence.
func ParseClassification(content string) (bool, error) {
	parsed, err := formatting.Parse[classifyResponse](content)
	if err != nil {
		return false, fmt.Errorf("parse response: %w", err)
	}
	if parsed.IsPlant == nil {
		return false, fmt.Errorf("parse response: missing is_plant")
	}
	return *parsed.IsPlant, nil
}

// ParseJudgment reads a model reply of the form
// {"score": number, "disease": string, "advice": string}.
func ParseJudgment(content string) (Judgment, error) {
	parsed, err := formatting.Parse[judgeResponse](content)
	if err != nil {
		return Judgment{}, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Score == nil {
		return Judgment{}, fmt.Errorf("parse response: missing score")
	}

	score := *parsed.Score
	if math.IsNaN(score) || score < 0 || score > MaxScore {
		return Judgment{}, fmt.Errorf("%w: %v", ErrScoreRange, score)
	}

	return Judgment{
		Score:   score,
		Disease: parsed.Disease,
		Advice:  parsed.Advice,
	}, nil
}
