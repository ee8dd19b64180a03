package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumefolio/internal/config"
	"github.com/muhammadolammi/resumefolio/internal/database"
	"github.com/muhammadolammi/resumefolio/internal/pipeline"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
	"github.com/muhammadolammi/resumefolio/internal/tui"
)

const usage = `usage:
  resumefolio [generate] [-resume] <path> [-out dir] [-tmp dir] [-logs dir] [-answers file.yaml] [-plain] [-publish]
  resumefolio worker
  resumefolio migrate [up|down|status]`

var commands = map[string]bool{
	"generate": true,
	"worker":   true,
	"migrate":  true,
	"help":     true,
}

// splitCommand returns the subcommand and its arguments. Anything that is not a
// known command, such as a resume path, runs generate.
func splitCommand(args []string) (string, []string) {
	if len(args) > 0 && commands[args[0]] {
		return args[0], args[1:]
	}
	return "generate", args
}

func main() {
	command, args := splitCommand(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "generate":
		err = runGenerate(ctx, cfg, args)
	case "worker":
		err = runWorker(ctx, cfg)
	case "migrate":
		err = runMigrate(ctx, cfg, args)
	case "help":
		fmt.Println(usage)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	resumePath := fs.String("resume", "", "path to the resume (.pdf or .docx)")
	outDir := fs.String("out", cfg.Paths.OutputDir, "directory for the generated portfolio")
	tmpDir := fs.String("tmp", cfg.Paths.TempDir, "directory for intermediate data")
	logDir := fs.String("logs", cfg.Paths.LogDir, "directory for errors.log")
	answersFile := fs.String("answers", "", "YAML file with questionnaire answers")
	plain := fs.Bool("plain", false, "ask the questionnaire on plain stdin/stdout")
	publish := fs.Bool("publish", false, "upload the generated portfolio to R2")
	var positional string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *resumePath == "" {
		*resumePath = positional
	}
	if *resumePath == "" && fs.NArg() > 0 {
		*resumePath = fs.Arg(0)
	}
	if *resumePath == "" {
		return errors.New("missing -resume")
	}
	if *publish {
		if err := cfg.ValidateR2(); err != nil {
			return err
		}
	}

	model, err := GetModel(ctx, cfg)
	if err != nil {
		return err
	}
	processor, err := pipeline.New(pipeline.Options{
		Model:     model,
		OutputDir: *outDir,
		TempDir:   *tmpDir,
		LogDir:    *logDir,
	})
	if err != nil {
		return err
	}

	var handler questionnaire.AnswerHandler
	switch {
	case *answersFile != "":
		handler = questionnaire.FileHandler(*answersFile)
	case *plain:
		handler = questionnaire.ConsoleHandler(os.Stdin, os.Stdout)
	default:
		handler = tui.FormHandler()
	}

	result, err := processor.Process(ctx, *resumePath, handler)
	if err != nil {
		return err
	}
	fmt.Printf("Generated portfolio at: %s\n", result.OutputDir)

	if *publish {
		store, err := newR2Store(ctx, cfg.R2)
		if err != nil {
			return err
		}
		prefix := jobPrefix(result.RunID)
		if err := uploadTree(ctx, store, result.OutputDir, prefix, result.GeneratedFiles); err != nil {
			return err
		}
		fmt.Printf("Published %d files to %s/%s\n", len(result.GeneratedFiles), cfg.R2.Bucket, prefix)
	}
	return nil
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("error opening db: %w", err)
	}
	defer db.Close()

	store, err := newR2Store(ctx, cfg.R2)
	if err != nil {
		return err
	}
	model, err := GetModel(ctx, cfg)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	defer conn.Close()

	workerConfig := WorkerConfig{
		DB:          database.New(db),
		Store:       store,
		Publisher:   &amqpPublisher{conn: conn},
		Model:       model,
		RABBITMQUrl: cfg.RabbitMQ.URL,
		WorkDir:     filepath.Join(cfg.Paths.TempDir, "jobs"),
		LogDir:      cfg.Paths.LogDir,
	}

	log.Printf("Starting %d workers consumer pool on queue %s", cfg.Worker.Count, jobsQueue)
	workerConfig.StartConsumerWorkerPool(ctx, cfg.Worker.Count)
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, args []string) error {
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("error opening db: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, command); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Printf("migrate %s done", command)
	return nil
}
