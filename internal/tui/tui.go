// SPDX-License-Identifier: MPL-2.0

// Package tui holds the interactive surfaces of graft: the
// additional-package confirmation prompt and the list rendering styles.
// Prompts degrade to plain line-oriented input when stdin is not a
// terminal, so piped and scripted runs keep working.
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true)
	listItemStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("6"))
)

// Confirmer asks yes/no questions. The zero value prompts on the real
// terminal; use the option funcs to redirect streams or skip prompting.
type Confirmer struct {
	assumeYes bool
	in        io.Reader
	out       io.Writer
}

// Option configures a Confirmer.
type Option func(*Confirmer)

// WithAssumeYes answers every question affirmatively without prompting.
func WithAssumeYes(yes bool) Option {
	return func(c *Confirmer) { c.assumeYes = yes }
}

// WithStreams redirects the prompt's input and output, used in tests.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(c *Confirmer) { c.in = in; c.out = out }
}

// NewConfirmer builds a Confirmer.
func NewConfirmer(opts ...Option) *Confirmer {
	c := &Confirmer{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfirmAdditional lists the packages pulled in as dependencies and asks
// whether to proceed. The default answer is yes.
func (c *Confirmer) ConfirmAdditional(names []string) (bool, error) {
	fmt.Fprintln(c.out, listHeaderStyle.Render("The following additional packages will be installed:"))
	for _, name := range names {
		fmt.Fprintln(c.out, listItemStyle.Render(name))
	}

	return c.ask("Do you want to continue?")
}

// ask puts one yes/no question to the user.
func (c *Confirmer) ask(question string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if !c.interactive() {
		return c.askPlain(question)
	}

	answer := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&answer),
	))
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return false, nil
		}
		return false, err
	}
	return answer, nil
}

// askPlain reads a y/n line, defaulting to yes on empty input.
func (c *Confirmer) askPlain(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [Y/n] ", question)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// interactive reports whether the prompt can drive a real terminal form.
func (c *Confirmer) interactive() bool {
	f, ok := c.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
