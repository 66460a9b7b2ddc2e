package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()

	// Out must never be stdout: the hook captures stdout as the message.
	Out io.Writer = os.Stderr
	// In is where prompts read answers from.
	In io.Reader = os.Stdin
)

// Info prints an informational message with a cyan arrow.
func Info(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", Cyan("→"), fmt.Sprintf(format, args...))
}

// Success prints a success message with a green checkmark.
func Success(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", Green("✔"), fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", Yellow("!"), fmt.Sprintf(format, args...))
}

// Fail prints an error message with a red X.
func Fail(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", Red("✘"), fmt.Sprintf(format, args...))
}

// AskYesNo prompts the user with a yes/no question. Only "y" and "yes"
// count as yes; an empty answer returns defaultYes.
func AskYesNo(prompt string, defaultYes bool) bool {
	if defaultYes {
		fmt.Fprintf(Out, "%s [Y/n] ", prompt)
	} else {
		fmt.Fprintf(Out, "%s [y/N] ", prompt)
	}

	reader := bufio.NewReader(In)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return defaultYes
	}
	return response == "y" || response == "yes"
}
