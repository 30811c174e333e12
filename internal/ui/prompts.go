package ui

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/byterings/ghp/internal/profile"
)

// Interactive is cleared by --no-input
var Interactive = true

// CanPrompt reports whether prompting is allowed and stdin and stdout are terminals
func CanPrompt() bool {
	return Interactive && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// PromptUsername prompts for the Git user.name
func PromptUsername(defaultName string) (string, error) {
	var name string
	prompt := &survey.Input{
		Message: "Git user name:",
		Help:    "Name used for Git commits (e.g., John Doe)",
		Default: defaultName,
	}
	if err := survey.AskOne(prompt, &name, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return name, nil
}

// PromptEmail prompts for the Git user.email
func PromptEmail() (string, error) {
	var email string
	prompt := &survey.Input{
		Message: "Email address:",
		Help:    "Email for Git commits, as registered on GitHub (e.g., john@example.com)",
	}
	emailValidator := func(val interface{}) error {
		if str, ok := val.(string); ok {
			if !profile.ValidEmail(str) {
				return fmt.Errorf("invalid email format")
			}
		}
		return nil
	}
	if err := survey.AskOne(prompt, &email, survey.WithValidator(survey.Required), survey.WithValidator(emailValidator)); err != nil {
		return "", err
	}
	return email, nil
}

// PromptExistingKeyPath prompts for existing SSH key path
func PromptExistingKeyPath() (string, error) {
	var path string
	prompt := &survey.Input{
		Message: "Path to SSH private key:",
		Help:    "Full path to your private key file (e.g., ~/.ssh/id_ed25519)",
	}
	if err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return path, nil
}

// PromptConfirmation prompts for yes/no confirmation
func PromptConfirmation(message string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
