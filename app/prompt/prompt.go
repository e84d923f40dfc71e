// Package prompt models blocking user interaction: yes/no confirmations and free-text questions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers a yes/no question
type Confirmer interface {
	Confirm(question string) bool
}

// Prompter asks for confirmations and text answers. ok is false when the user cancelled.
type Prompter interface {
	Confirmer
	Ask(question string) (answer string, ok bool)
}

// Terminal prompts on Out and reads line answers from In
type Terminal struct {
	Out     io.Writer
	scanner *bufio.Scanner
}

// NewTerminal makes a Terminal reading from in and writing prompts to out
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{Out: out, scanner: bufio.NewScanner(in)}
}

// Confirm accepts only y or yes, case-insensitive
func (t *Terminal) Confirm(question string) bool {
	ans, ok := t.readLine(question + " [y/N]: ")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(ans)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ask returns the trimmed answer, ok is false on end of input
func (t *Terminal) Ask(question string) (string, bool) {
	ans, ok := t.readLine(question + " ")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(ans), true
}

func (t *Terminal) readLine(msg string) (string, bool) {
	if t.Out != nil {
		_, _ = fmt.Fprint(t.Out, msg)
	}
	if !t.scanner.Scan() {
		return "", false
	}
	return t.scanner.Text(), true
}

// AssumeYes confirms everything and passes questions to the wrapped Prompter, if any
type AssumeYes struct {
	Prompter Prompter
}

// Confirm always returns true
func (a AssumeYes) Confirm(string) bool { return true }

// Ask delegates to the wrapped Prompter, cancelled if there is none
func (a AssumeYes) Ask(question string) (string, bool) {
	if a.Prompter == nil {
		return "", false
	}
	return a.Prompter.Ask(question)
}

// Fixed replies with preset answers, used where answers come from a request rather than a person
type Fixed struct {
	Yes     bool
	Answers []string // consumed in order, missing answer means cancelled
}

// Confirm returns Yes
func (f *Fixed) Confirm(string) bool { return f.Yes }

// Ask pops the next answer
func (f *Fixed) Ask(string) (string, bool) {
	if len(f.Answers) == 0 {
		return "", false
	}
	ans := f.Answers[0]
	f.Answers = f.Answers[1:]
	return ans, true
}
