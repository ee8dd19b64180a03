package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumefolio/internal/database"
	"github.com/muhammadolammi/resumefolio/internal/pipeline"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
)

// RunLedger is the subset of database.Queries the worker writes to.
type RunLedger interface {
	GetRun(ctx context.Context, id uuid.UUID) (database.PortfolioRun, error)
	CreateRun(ctx context.Context, arg database.CreateRunParams) (database.PortfolioRun, error)
	UpdateRunStatus(ctx context.Context, arg database.UpdateRunStatusParams) error
	SaveRunResult(ctx context.Context, arg database.SaveRunResultParams) error
}

var _ RunLedger = (*database.Queries)(nil)

func (workerConfig *WorkerConfig) publish(jobID uuid.UUID, status, stage, message string) {
	update := JobUpdate{
		JobID:     jobID,
		Status:    status,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := workerConfig.Publisher.Publish(update); err != nil {
		log.Println("failed to publish update:", err)
	}
}

// setStatus records the outcome even when ctx was canceled by shutdown.
func (workerConfig *WorkerConfig) setStatus(ctx context.Context, jobID uuid.UUID, status, errMsg string) {
	ctx = context.WithoutCancel(ctx)
	_, err := retry(3, func() (any, error) {
		return nil, workerConfig.DB.UpdateRunStatus(ctx, database.UpdateRunStatusParams{
			Status: status,
			Error:  sql.NullString{String: errMsg, Valid: errMsg != ""},
			ID:     jobID,
		})
	})
	if err != nil {
		log.Printf("error updating run status to %s for job_id: %v. err: %v", status, jobID, err)
	}
}

// generatePortfolio downloads the resume, runs the pipeline with the job's answers
// and uploads the generated tree. Model calls are never retried.
func generatePortfolio(ctx context.Context, job PortfolioJob, workerConfig *WorkerConfig) (*JobResult, error) {
	// ✅ Retry downloading file (network failures are transient)
	fileBytes, err := retry(3, func() ([]byte, error) {
		return workerConfig.Store.Download(ctx, job.ObjectKey)
	})
	if err != nil {
		return nil, fmt.Errorf("file download error: %w", err)
	}

	jobDir := filepath.Join(workerConfig.WorkDir, job.JobID.String())
	processor, err := pipeline.New(pipeline.Options{
		Model:     workerConfig.Model,
		OutputDir: filepath.Join(jobDir, "site"),
		TempDir:   filepath.Join(jobDir, "tmp"),
		LogDir:    workerConfig.LogDir,
		Observer: func(stage pipeline.Stage) {
			if stage == pipeline.StageDone || stage == pipeline.StageFailed {
				return
			}
			workerConfig.publish(job.JobID, StatusProcessing, string(stage), "portfolio generation in progress")
		},
	})
	if err != nil {
		return nil, err
	}

	resumeName := path.Base(job.ObjectKey)
	result, err := processor.ProcessBytes(ctx, resumeName, fileBytes, questionnaire.FixedHandler(job.Answers))
	if err != nil {
		return nil, err
	}

	prefix := jobPrefix(job.JobID)
	if err := uploadTree(ctx, workerConfig.Store, result.OutputDir, prefix, result.GeneratedFiles); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(jobDir); err != nil {
		log.Printf("⚠️ failed to clean up %s: %v", jobDir, err)
	}

	return &JobResult{
		RunID:        result.RunID,
		ResumeName:   resumeName,
		Files:        result.GeneratedFiles,
		OutputPrefix: prefix,
	}, nil
}

// runJob records the job, generates the portfolio and reports the outcome.
// A redelivered job whose run already completed is skipped.
func runJob(ctx context.Context, job PortfolioJob, workerConfig *WorkerConfig) error {
	run, err := workerConfig.DB.GetRun(ctx, job.JobID)
	switch {
	case err == nil && run.Status == StatusCompleted:
		log.Printf("job_id: %s already completed, skipping", job.JobID)
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		log.Printf("error looking up run for job_id: %v. err: %v", job.JobID, err)
	}

	answers, err := json.Marshal(job.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	_, err = retry(3, func() (database.PortfolioRun, error) {
		return workerConfig.DB.CreateRun(ctx, database.CreateRunParams{
			ID:        job.JobID,
			ObjectKey: job.ObjectKey,
			Answers:   answers,
			Status:    StatusProcessing,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to record run after retries: %w", err)
	}
	workerConfig.publish(job.JobID, StatusProcessing, "", "portfolio generation started")

	result, err := generatePortfolio(ctx, job, workerConfig)
	if err != nil {
		workerConfig.setStatus(ctx, job.JobID, StatusFailed, err.Error())
		workerConfig.publish(job.JobID, StatusFailed, "", err.Error())
		return err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	ledgerCtx := context.WithoutCancel(ctx)
	_, err = retry(3, func() (any, error) {
		return nil, workerConfig.DB.SaveRunResult(ledgerCtx, database.SaveRunResultParams{
			Result: resultJSON,
			ID:     job.JobID,
		})
	})
	if err != nil {
		workerConfig.setStatus(ctx, job.JobID, StatusFailed, err.Error())
		workerConfig.publish(job.JobID, StatusFailed, "", err.Error())
		return fmt.Errorf("failed to save job result after retries: %w", err)
	}

	workerConfig.setStatus(ctx, job.JobID, StatusCompleted, "")
	err = workerConfig.Publisher.Publish(JobUpdate{
		JobID:        job.JobID,
		Status:       StatusCompleted,
		Message:      "portfolio generation completed",
		Files:        result.Files,
		OutputPrefix: result.OutputPrefix,
		Timestamp:    time.Now(),
	})
	if err != nil {
		log.Println("failed to publish update:", err)
	}
	return nil
}

// handleDelivery decodes one queue message and runs it. Undecodable messages
// are marked failed when they still carry a job id.
func handleDelivery(ctx context.Context, id int, body []byte, workerConfig *WorkerConfig) {
	job, err := decodeJob(body)
	if err != nil {
		log.Printf("worker %d: invalid job message. err: %v", id+1, err)
		if job.JobID != uuid.Nil {
			workerConfig.setStatus(ctx, job.JobID, StatusFailed, err.Error())
			workerConfig.publish(job.JobID, StatusFailed, "", err.Error())
		}
		return
	}
	log.Printf("Worker %d processing job. job_id: %s", id+1, job.JobID)
	if err := runJob(ctx, job, workerConfig); err != nil {
		log.Printf("error generating portfolio for job_id: %v. err: %v", job.JobID, err)
		return
	}
	log.Printf("Worker %d completed job. job_id: %s", id+1, job.JobID)
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	//    to consume message on the queue
	conn, err := amqp.Dial(workerConfig.RABBITMQUrl)
	if err != nil {
		log.Fatal("error dialling rabbitmq: " + err.Error())
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("error connecting to rabbitmq channel: " + err.Error())
	}
	defer ch.Close()
	_, err = ch.QueueDeclare(
		jobsQueue, // queue name
		true,      // durable (survives broker restarts)
		false,     // auto-delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}
	// one job at a time per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatalf("Failed to set qos: %v", err)
	}

	msgs, err := ch.Consume(
		jobsQueue, // queue name
		"",        // consumer tag
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		log.Fatal("error consuming rabbitmq message: " + err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %d stopping", id+1)
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("worker %d: delivery channel closed", id+1)
				return
			}
			handleDelivery(ctx, id, msg.Body, workerConfig)
			settleDelivery(ctx, id, msg)
		}
	}
}

// settleDelivery acks a handled message. A message interrupted by shutdown is
// requeued so another worker picks it up.
func settleDelivery(ctx context.Context, id int, msg amqp.Delivery) {
	if ctx.Err() != nil {
		if err := msg.Nack(false, true); err != nil {
			log.Printf("worker %d: nack failed: %v", id+1, err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		log.Printf("worker %d: ack failed: %v", id+1, err)
	}
}

func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		log.Println("worker id ", i+1, "started")
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait() // block until all workers finish
}
