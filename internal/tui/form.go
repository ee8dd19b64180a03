// Package tui renders the design questionnaire as a terminal form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
)

// ErrAborted is returned when the user leaves the form with esc or ctrl+c.
var ErrAborted = errors.New("questionnaire aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4D96FF")).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).PaddingLeft(2)
	answeredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

// FormHandler collects answers with a bubbletea form, one text input per question.
func FormHandler(opts ...tea.ProgramOption) questionnaire.AnswerHandler {
	return func(ctx context.Context, questions []questionnaire.Question) (questionnaire.Answers, error) {
		if len(questions) == 0 {
			return questionnaire.Answers{}, nil
		}
		m := newFormModel(questions)
		p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
		final, err := p.Run()
		if err != nil {
			return nil, fmt.Errorf("run questionnaire form: %w", err)
		}
		fm, ok := final.(*formModel)
		if !ok {
			return nil, fmt.Errorf("unexpected form model %T", final)
		}
		return fm.result()
	}
}

type formModel struct {
	questions []questionnaire.Question
	answers   questionnaire.Answers
	input     textinput.Model
	current   int
	aborted   bool
	width     int
}

func newFormModel(questions []questionnaire.Question) *formModel {
	input := textinput.New()
	input.Placeholder = "type your answer"
	input.Prompt = "> "
	input.Focus()
	return &formModel{
		questions: questions,
		answers:   make(questionnaire.Answers, len(questions)),
		input:     input,
	}
}

func (m *formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			return m, m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit records the current answer and moves on, quitting after the last question.
func (m *formModel) submit() tea.Cmd {
	if m.done() {
		return tea.Quit
	}
	q := m.questions[m.current]
	m.answers[q.QuestionType] = strings.TrimSpace(m.input.Value())
	m.current++
	m.input.Reset()
	if m.done() {
		return tea.Quit
	}
	return nil
}

func (m *formModel) done() bool {
	return m.current >= len(m.questions)
}

func (m *formModel) result() (questionnaire.Answers, error) {
	if m.aborted {
		return nil, ErrAborted
	}
	return m.answers, nil
}

func (m *formModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Design Questionnaire"))
	b.WriteString("\n")
	for i := 0; i < m.current && i < len(m.questions); i++ {
		q := m.questions[i]
		b.WriteString(answeredStyle.Render(fmt.Sprintf("Q%d: %s  %s", i+1, q.QuestionText, m.answers[q.QuestionType])))
		b.WriteString("\n")
	}
	if m.done() {
		return b.String()
	}
	q := m.questions[m.current]
	header := fmt.Sprintf("Q%d/%d: %s", m.current+1, len(m.questions), q.QuestionText)
	if m.width > 0 {
		b.WriteString(questionStyle.Width(m.width).Render(header))
	} else {
		b.WriteString(questionStyle.Render(header))
	}
	b.WriteString("\n")
	for _, opt := range q.Options {
		b.WriteString(optionStyle.Render(opt.Label + " " + opt.Value))
		b.WriteString("\n")
	}
	if q.Multiselect {
		b.WriteString(optionStyle.Render("(several allowed, separate with commas)"))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: next  esc: cancel"))
	return b.String()
}
