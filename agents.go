package main

import (
	"context"
	"fmt"
	"log"

	"github.com/muhammadolammi/resumefolio/internal/config"
	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/llm/gemini"
	"github.com/muhammadolammi/resumefolio/internal/llm/openai"
)

// GetModel builds the configured backend and wraps it with progress reporting.
func GetModel(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	var backend llm.Generator
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		b, err := gemini.New(ctx, gemini.Config{
			APIKey: cfg.LLM.GoogleAPIKey,
			Model:  cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		backend = b
	case config.ProviderDeepSeek:
		b, err := openai.New(openai.Config{
			APIKey:    cfg.LLM.DeepSeekAPIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek backend: %w", err)
		}
		backend = b
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}
	log.Printf("using %s model provider", cfg.LLM.Provider)
	return llm.NewClient(backend, llm.WithProgressInterval(cfg.ProgressInterval())), nil
}
