package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumefolio/internal/config"
)

// retryWait is the base of the linear backoff between attempts.
var retryWait = 500 * time.Millisecond

// retry retries a function up to `attempts` times with linear backoff
func retry[T any](attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(retryWait * time.Duration(i+1))
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// ObjectStore is the bucket holding uploaded resumes and generated portfolios.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

type r2Store struct {
	client *s3.Client
	bucket string
}

func newR2Store(ctx context.Context, r2 config.R2Config) (*r2Store, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return &r2Store{client: client, bucket: r2.Bucket}, nil
}

func (s *r2Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *r2Store) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// portfolioObjectKey is where a generated file is stored: portfolios/<job_id>/<path>.
func portfolioObjectKey(prefix, rel string) string {
	return path.Join(prefix, filepath.ToSlash(rel))
}

func jobPrefix(jobID uuid.UUID) string {
	return path.Join(portfolioPrefix, jobID.String())
}

var extraContentTypes = map[string]string{
	".jsx":  "text/javascript; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json",
	".md":   "text/markdown; charset=utf-8",
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := extraContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// uploadTree uploads each generated file under dir to prefix, retrying each upload.
func uploadTree(ctx context.Context, store ObjectStore, dir, prefix string, files []string) error {
	for _, rel := range files {
		body, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return fmt.Errorf("read generated file %s: %w", rel, err)
		}
		key := portfolioObjectKey(prefix, rel)
		_, err = retry(3, func() (any, error) {
			return nil, store.Upload(ctx, key, body, contentTypeFor(rel))
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}
	return nil
}

// decodeJob parses a queue message and checks the fields every job needs.
func decodeJob(body []byte) (PortfolioJob, error) {
	job := PortfolioJob{}
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("error unmarshalling message body: %w", err)
	}
	if job.JobID == uuid.Nil {
		return job, errors.New("job_id is required")
	}
	if strings.TrimSpace(job.ObjectKey) == "" {
		return job, errors.New("object_key is required")
	}
	if job.Answers == nil {
		job.Answers = map[string]string{}
	}
	return job, nil
}

// UpdatePublisher sends job status updates to listeners.
type UpdatePublisher interface {
	Publish(update JobUpdate) error
}

type amqpPublisher struct {
	conn *amqp.Connection
}

func (p *amqpPublisher) Publish(update JobUpdate) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		updatesExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	); err != nil {
		return err
	}

	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	routingKey := fmt.Sprintf("job.%s", update.JobID)

	return ch.Publish(
		updatesExchange, // exchange
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
