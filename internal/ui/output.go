package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/byterings/ghp/internal/profile"
)

// Out is where user-facing messages go
var Out io.Writer = os.Stdout

// PrintProfilesList prints the list of profiles in a formatted way
func PrintProfilesList(profiles []profile.Profile, active string) {
	if len(profiles) == 0 {
		fmt.Fprintln(Out, "No profiles configured yet.")
		fmt.Fprintln(Out, "\nAdd your first profile with: ghp add <name>")
		return
	}

	fmt.Fprintln(Out, "\nConfigured profiles:")
	fmt.Fprintln(Out)

	for _, p := range profiles {
		indicator := " "
		if p.Name == active {
			indicator = "→"
		}

		fmt.Fprintf(Out, "%s %-16s %-30s %-20s %s\n",
			indicator,
			p.Name,
			p.Email,
			p.Username,
			p.KeyPath,
		)
	}

	fmt.Fprintln(Out)
	if active == "" {
		fmt.Fprintln(Out, "No active profile. Use 'ghp switch <name>' to set one.")
	}
}

// Success prints a success message with checkmark
func Success(message string) {
	fmt.Fprintf(Out, "✓ %s\n", message)
}

// Error prints an error message
func Error(message string) {
	fmt.Fprintf(Out, "✗ %s\n", message)
}

// Info prints an info message
func Info(message string) {
	fmt.Fprintf(Out, "ℹ %s\n", message)
}

// Warning prints a warning message
func Warning(message string) {
	fmt.Fprintf(Out, "⚠ %s\n", message)
}

// Print prints text as is
func Print(a ...any) {
	fmt.Fprint(Out, a...)
}

// Println prints a plain line
func Println(a ...any) {
	fmt.Fprintln(Out, a...)
}

// Printf prints a plain formatted message
func Printf(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}
