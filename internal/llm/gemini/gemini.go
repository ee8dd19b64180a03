// Package gemini runs single-turn prompts through an ADK agent backed by a Gemini model.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	adkgemini "google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/muhammadolammi/resumefolio/internal/llm"
)

const (
	DefaultModel = "gemini-2.5-pro"
	appName      = "resumefolio"
	userID       = "resumefolio"
)

type Config struct {
	APIKey string
	Model  string
}

// Backend builds a fresh agent per call so each call carries its own system instruction.
type Backend struct {
	model    model.LLM
	sessions session.Service
}

func New(ctx context.Context, cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required for gemini")
	}
	name := cfg.Model
	if strings.TrimSpace(name) == "" {
		name = DefaultModel
	}
	m, err := adkgemini.NewModel(ctx, name, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return &Backend{
		model:    m,
		sessions: session.InMemoryService(),
	}, nil
}

func (b *Backend) Generate(ctx context.Context, systemInstruction, userMessage string) (string, error) {
	generator, err := llmagent.New(llmagent.Config{
		Name:        "portfolio_generator",
		Model:       b.model,
		Description: "Resume to portfolio generation step",
		Instruction: systemInstruction,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %w", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          generator,
		SessionService: b.sessions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create runner: %w", err)
	}

	created, err := b.sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	sess := created.Session
	defer func() {
		_ = b.sessions.Delete(context.Background(), &session.DeleteRequest{
			AppName:   sess.AppName(),
			UserID:    sess.UserID(),
			SessionID: sess.ID(),
		})
	}()

	stream := r.Run(ctx, sess.UserID(), sess.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: userMessage},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = finalText(event.Content.Parts)
		}
	}
	if output == "" {
		return "", llm.ErrEmptyResponse
	}
	return output, nil
}

func finalText(parts []*genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

var _ llm.Generator = (*Backend)(nil)
