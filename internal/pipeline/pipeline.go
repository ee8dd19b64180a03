// Package pipeline runs a resume through extraction, parsing, the design
// questionnaire and portfolio generation, and writes the result to disk.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumefolio/internal/extract"
	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/portfolio"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
	"github.com/muhammadolammi/resumefolio/internal/resume"
)

const (
	DefaultOutputDir = "./portfolio"
	DefaultTempDir   = "./tmp"
	DefaultLogDir    = "./logs"

	intermediateFile = "step1_output.json"
)

type Stage string

const (
	StageExtract           Stage = "extract"
	StageParseResume       Stage = "parse_resume"
	StagePersistResume     Stage = "persist_resume"
	StageGenerateQuestions Stage = "generate_questions"
	StageCollectAnswers    Stage = "collect_answers"
	StageGeneratePortfolio Stage = "generate_portfolio"
	StageWriteFiles        Stage = "write_files"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// Observer is called each time a run enters a stage.
type Observer func(Stage)

// StageError is the error returned by Process. Its message is the message of
// the underlying failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

type Options struct {
	// Model is required.
	Model llm.Generator

	OutputDir string
	TempDir   string
	LogDir    string

	Logger   *log.Logger
	Observer Observer

	// Used by the default console answer handler.
	Stdin  io.Reader
	Stdout io.Writer
}

type Result struct {
	RunID          uuid.UUID     `json:"run_id"`
	ResumeData     resume.Record `json:"resume_data"`
	GeneratedFiles []string      `json:"generated_files"`
	OutputDir      string        `json:"output_dir"`
}

type Processor struct {
	outputDir string
	tempDir   string
	logger    *log.Logger
	observer  Observer
	stdin     io.Reader
	stdout    io.Writer

	errLog        *ErrorLog
	parser        *resume.Parser
	questionnaire *questionnaire.Generator
	portfolio     *portfolio.Generator
}

// New creates the output, temp and log directories and wires the stage components.
func New(opts Options) (*Processor, error) {
	if opts.Model == nil {
		return nil, errors.New("pipeline: model is required")
	}
	p := &Processor{
		outputDir: valueOr(opts.OutputDir, DefaultOutputDir),
		tempDir:   valueOr(opts.TempDir, DefaultTempDir),
		logger:    opts.Logger,
		observer:  opts.Observer,
		stdin:     opts.Stdin,
		stdout:    opts.Stdout,
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.stdin == nil {
		p.stdin = os.Stdin
	}
	if p.stdout == nil {
		p.stdout = os.Stdout
	}
	for _, dir := range []string{p.tempDir, p.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	errLog, err := NewErrorLog(valueOr(opts.LogDir, DefaultLogDir))
	if err != nil {
		return nil, err
	}
	p.errLog = errLog
	p.parser = resume.NewParser(opts.Model)
	p.questionnaire = questionnaire.NewGenerator(opts.Model, p.logger)
	p.portfolio = portfolio.NewGenerator(opts.Model)
	return p, nil
}

func (p *Processor) ErrorLog() *ErrorLog { return p.errLog }

// Process runs every stage for the resume at resumePath. A nil handler reads
// answers from the console. On failure the message is appended to errors.log
// and returned as a *StageError; files already written are left in place.
func (p *Processor) Process(ctx context.Context, resumePath string, handler questionnaire.AnswerHandler) (*Result, error) {
	return p.process(ctx, resumePath, func() (string, error) {
		return extract.Extract(resumePath)
	}, handler)
}

// ProcessBytes is Process for a document already in memory; name supplies the extension.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte, handler questionnaire.AnswerHandler) (*Result, error) {
	return p.process(ctx, name, func() (string, error) {
		return extract.FromBytes(name, data)
	}, handler)
}

func (p *Processor) process(ctx context.Context, source string, extractText func() (string, error), handler questionnaire.AnswerHandler) (*Result, error) {
	if handler == nil {
		handler = questionnaire.ConsoleHandler(p.stdin, p.stdout)
	}
	runID := uuid.New()
	p.logger.Printf("run %s: starting resume processing pipeline for %s", runID, source)

	result, stage, err := p.run(ctx, runID, source, extractText, handler)
	if err != nil {
		p.enter(StageFailed)
		message := fmt.Sprintf("Processing failed: %v", err)
		if logErr := p.errLog.Append(message); logErr != nil {
			p.logger.Printf("run %s: write %s: %v", runID, p.errLog.Path(), logErr)
		}
		p.logger.Printf("run %s: %s (stage %s)", runID, message, stage)
		return nil, &StageError{Stage: stage, Err: err}
	}
	p.enter(StageDone)
	p.logger.Printf("run %s: portfolio saved in directory: %s", runID, result.OutputDir)
	return result, nil
}

func (p *Processor) run(ctx context.Context, runID uuid.UUID, source string, extractText func() (string, error), handler questionnaire.AnswerHandler) (*Result, Stage, error) {
	p.enter(StageExtract)
	p.logger.Printf("run %s: extracting text from %s", runID, source)
	text, err := extractText()
	if err != nil {
		return nil, StageExtract, err
	}

	p.enter(StageParseResume)
	record, err := p.parser.Parse(ctx, text)
	if err != nil {
		return nil, StageParseResume, err
	}
	p.logger.Printf("run %s: resume parsed for %q", runID, record.FullName())

	p.enter(StagePersistResume)
	if err := p.persist(record); err != nil {
		return nil, StagePersistResume, err
	}

	p.enter(StageGenerateQuestions)
	questions, err := p.questionnaire.Generate(ctx, record)
	if err != nil {
		return nil, StageGenerateQuestions, err
	}
	p.logger.Printf("run %s: %d design questions generated", runID, len(questions))

	p.enter(StageCollectAnswers)
	answers, err := handler(ctx, questions)
	if err != nil {
		return nil, StageCollectAnswers, err
	}
	if answers == nil {
		answers = questionnaire.Answers{}
	}

	p.enter(StageGeneratePortfolio)
	files, err := p.portfolio.Generate(ctx, record, answers)
	if err != nil {
		return nil, StageGeneratePortfolio, err
	}
	p.logger.Printf("run %s: %d files generated", runID, len(files))

	p.enter(StageWriteFiles)
	if err := portfolio.WriteFiles(p.outputDir, files); err != nil {
		return nil, StageWriteFiles, err
	}
	abs, err := filepath.Abs(p.outputDir)
	if err != nil {
		return nil, StageWriteFiles, fmt.Errorf("resolve output dir: %w", err)
	}

	return &Result{
		RunID:          runID,
		ResumeData:     record,
		GeneratedFiles: portfolio.Paths(files),
		OutputDir:      abs,
	}, StageDone, nil
}

func (p *Processor) persist(record resume.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode intermediate data: %w", err)
	}
	path := filepath.Join(p.tempDir, intermediateFile)
	p.logger.Printf("saving intermediate data to: %s", path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write intermediate data: %w", err)
	}
	return nil
}

func (p *Processor) enter(stage Stage) {
	if p.observer != nil {
		p.observer(stage)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
