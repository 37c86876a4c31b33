// Package prompt asks the user for the city to track.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-tracker/internal/present"
)

// ErrAborted is returned when the user quits the prompt without a city.
var ErrAborted = errors.New("prompt aborted")

var validate = validator.New()

const question = "Enter city name: "

type cityInput struct {
	City string `validate:"required,max=100"`
}

// Clean trims and validates a city name.
func Clean(raw string) (string, error) {
	in := cityInput{City: strings.TrimSpace(raw)}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("invalid city name: %w", err)
	}
	return in.City, nil
}

// Banner prints the program header.
func Banner(out io.Writer, title string) {
	st := present.NewStyles(out)
	fmt.Fprintln(out, st.Rule.Render("-----------------------------------------------------"))
	fmt.Fprintln(out, st.Title.Render(title))
	fmt.Fprintln(out, st.Rule.Render("-----------------------------------------------------"))
	fmt.Fprintln(out)
}

// ReadCity asks for a city name. On a terminal an interactive text input is
// used; otherwise one line is read from in.
func ReadCity(in io.Reader, out io.Writer, interactive bool) (string, error) {
	if interactive {
		return readInteractive(in, out)
	}
	return readLine(in, out)
}

func readLine(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, question)

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return Clean(sc.Text())
}

func readInteractive(in io.Reader, out io.Writer) (string, error) {
	final, err := tea.NewProgram(newModel(), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}

	m, ok := final.(model)
	if !ok || m.aborted {
		return "", ErrAborted
	}
	return Clean(m.input.Value())
}

type model struct {
	input   textinput.Model
	err     error
	done    bool
	aborted bool
}

func newModel() model {
	ti := textinput.New()
	ti.Prompt = question
	ti.Placeholder = "Pune"
	ti.CharLimit = 100
	ti.Focus()
	return model{input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			if _, err := Clean(m.input.Value()); err != nil {
				m.err = err
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = nil
	return m, cmd
}

func (m model) View() string {
	if m.done || m.aborted {
		return ""
	}
	v := m.input.View() + "\n"
	if m.err != nil {
		v += "City name cannot be empty.\n"
	}
	return v
}
