package questionnaire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AnswerHandler turns the generated questions into an answer map.
type AnswerHandler func(ctx context.Context, questions []Question) (Answers, error)

// ConsoleHandler prints each question with its options and reads one line per answer.
func ConsoleHandler(in io.Reader, out io.Writer) AnswerHandler {
	return func(ctx context.Context, questions []Question) (Answers, error) {
		answers := make(Answers, len(questions))
		if len(questions) == 0 {
			return answers, nil
		}
		scanner := bufio.NewScanner(in)
		fmt.Fprintln(out, "\n=== Design Questionnaire ===")
		for idx, q := range questions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fmt.Fprintf(out, "\nQ%d: %s\n", idx+1, q.QuestionText)
			for _, opt := range q.Options {
				fmt.Fprintf(out, "  %s %s\n", opt.Label, opt.Value)
			}
			fmt.Fprint(out, "Your answer: ")
			answer := ""
			if scanner.Scan() {
				answer = strings.TrimSpace(scanner.Text())
			} else if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			answers[q.QuestionType] = answer
		}
		return answers, nil
	}
}

// FixedHandler answers every run with a copy of the given map.
func FixedHandler(fixed Answers) AnswerHandler {
	return func(ctx context.Context, questions []Question) (Answers, error) {
		answers := make(Answers, len(fixed))
		for k, v := range fixed {
			answers[k] = v
		}
		return answers, nil
	}
}

// FileHandler loads answers from a YAML mapping of question_type to answer.
func FileHandler(path string) AnswerHandler {
	return func(ctx context.Context, questions []Question) (Answers, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read answers file: %w", err)
		}
		answers, err := ParseAnswers(data)
		if err != nil {
			return nil, fmt.Errorf("parse answers file %s: %w", path, err)
		}
		return answers, nil
	}
}

// ParseAnswers decodes a YAML mapping of question_type to answer.
func ParseAnswers(data []byte) (Answers, error) {
	answers := Answers{}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
