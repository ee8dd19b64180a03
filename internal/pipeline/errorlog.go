package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const errorLogName = "errors.log"

// ErrorLog appends failure messages, one per line, to <dir>/errors.log.
type ErrorLog struct {
	path string
	mu   sync.Mutex
}

func NewErrorLog(dir string) (*ErrorLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &ErrorLog{path: filepath.Join(dir, errorLogName)}, nil
}

func (l *ErrorLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes message as a single line. Embedded newlines are flattened.
func (l *ErrorLog) Append(message string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := strings.NewReplacer("\r\n", " ", "\n", " ").Replace(message) + "\n"
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(line)
	return err
}

// Lines returns every recorded line.
func (l *ErrorLog) Lines() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
