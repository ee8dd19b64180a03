// Package llm is the single prompt-in/text-out boundary to a text-generation service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Generator sends one system instruction and one user message and returns the generated text.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userMessage string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemInstruction, userMessage string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, systemInstruction, userMessage string) (string, error) {
	return f(ctx, systemInstruction, userMessage)
}

// CallError reports a failed model call with the time spent before it failed.
type CallError struct {
	Elapsed time.Duration
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed after %s: %v", e.Elapsed.Round(10*time.Millisecond), e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned by backends that received no text.
var ErrEmptyResponse = errors.New("empty model response")

const DefaultProgressInterval = 2 * time.Second

// Client wraps a backend with elapsed-time reporting and typed errors.
// It never retries.
type Client struct {
	backend  Generator
	interval time.Duration
	logger   *log.Logger
	report   func(time.Duration)
}

type Option func(*Client)

// WithProgressInterval sets how often elapsed time is reported while a call is outstanding.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgressReporter replaces the default log line emitted on every tick.
func WithProgressReporter(fn func(elapsed time.Duration)) Option {
	return func(c *Client) {
		c.report = fn
	}
}

func NewClient(backend Generator, opts ...Option) *Client {
	c := &Client{
		backend:  backend,
		interval: DefaultProgressInterval,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.report == nil {
		logger := c.logger
		c.report = func(elapsed time.Duration) {
			logger.Printf("waiting for model response: %.2fs elapsed", elapsed.Seconds())
		}
	}
	return c
}

func (c *Client) Generate(ctx context.Context, systemInstruction, userMessage string) (string, error) {
	if c.backend == nil {
		return "", &CallError{Err: errors.New("no model backend configured")}
	}
	c.logger.Printf("generating response system_len=%d user_len=%d", len(systemInstruction), len(userMessage))

	start := time.Now()
	stop := startProgress(start, c.interval, c.report)
	text, err := c.backend.Generate(ctx, systemInstruction, userMessage)
	stop()
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Printf("model call failed after %.2fs: %v", elapsed.Seconds(), err)
		return "", &CallError{Elapsed: elapsed, Err: err}
	}
	c.logger.Printf("response generated in %.2fs response_len=%d", elapsed.Seconds(), len(text))
	return text, nil
}

var _ Generator = (*Client)(nil)
