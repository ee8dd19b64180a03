package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
)

const (
	jobsQueue       = "portfolio_jobs"
	updatesExchange = "portfolio_updates"
	portfolioPrefix = "portfolios"

	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type WorkerConfig struct {
	DB          RunLedger
	Store       ObjectStore
	Publisher   UpdatePublisher
	Model       llm.Generator
	RABBITMQUrl string
	WorkDir     string
	LogDir      string
}

// PortfolioJob is the message body consumed from the jobs queue.
type PortfolioJob struct {
	JobID     uuid.UUID             `json:"job_id"`
	ObjectKey string                `json:"object_key"`
	Answers   questionnaire.Answers `json:"answers"`
}

// JobUpdate is published on every status change and pipeline stage.
type JobUpdate struct {
	JobID        uuid.UUID `json:"job_id"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage,omitempty"`
	Message      string    `json:"message"`
	Files        []string  `json:"files,omitempty"`
	OutputPrefix string    `json:"output_prefix,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// JobResult is stored in the run ledger once a job completes.
type JobResult struct {
	RunID        uuid.UUID `json:"run_id"`
	ResumeName   string    `json:"resume_name"`
	Files        []string  `json:"generated_files"`
	OutputPrefix string    `json:"output_prefix"`
}
