package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// PromptForUnits lets the operator pick any of ids. It returns nil when
// nothing was selected.
func PromptForUnits(title string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	options := make([]huh.Option[string], len(ids))
	for i, id := range ids {
		options[i] = huh.NewOption(id, id)
	}

	var selected []string
	field := huh.NewMultiSelect[string]().
		Title(title).
		Options(options...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	// Check common CI environment variables
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
