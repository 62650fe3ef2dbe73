package main

import (
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// Prompter asks the user to pick one option. Tests replace it.
type Prompter interface {
	Select(message string, options []string, defaultIndex int) (int, error)
}

// surveyPrompter implements Prompter using the survey library.
type surveyPrompter struct{}

func (surveyPrompter) Select(message string, options []string, defaultIndex int) (int, error) {
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}
	var choice int
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: options[defaultIndex],
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return 0, err
	}
	return choice, nil
}

var defaultPrompter Prompter = surveyPrompter{}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// interactive reports whether both ends of a prompt are attached to a terminal.
func interactive(in io.Reader, out io.Writer) bool {
	return isTerminal(in) && isTerminal(out)
}
