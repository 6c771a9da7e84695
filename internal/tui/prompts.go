package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via G_NO_INTERACTIVE
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (G_NO_INTERACTIVE is set)")

// ErrCanceled is returned when the user aborts a prompt
var ErrCanceled = errors.New("canceled")

// InteractiveAllowed reports whether prompting the user is possible and permitted
func InteractiveAllowed() bool {
	return os.Getenv("G_NO_INTERACTIVE") == "" && IsTTY()
}

// Confirm asks a yes/no question
func Confirm(message string, defaultYes bool) (bool, error) {
	if os.Getenv("G_NO_INTERACTIVE") != "" {
		return false, ErrInteractiveDisabled
	}

	var answer bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultYes,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, ErrCanceled
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return answer, nil
}
