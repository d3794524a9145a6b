package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// linePrompt answers dialogs on a terminal.
type linePrompt struct {
	in      *bufio.Reader
	out     io.Writer
	assumed bool
}

func newLinePrompt(in io.Reader, out io.Writer, assumeYes bool) *linePrompt {
	return &linePrompt{in: bufio.NewReader(in), out: out, assumed: assumeYes}
}

func (p *linePrompt) Notify(msg string) {
	fmt.Fprintf(p.out, "notice: %s\n", msg)
}

func (p *linePrompt) Confirm(msg string) bool {
	if p.assumed {
		fmt.Fprintf(p.out, "%s [y/N]: y\n", msg)
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", msg)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true
	}
	return false
}

// printNavigator reports redirects instead of navigating.
type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Redirect(path string) {
	fmt.Fprintf(n.out, "redirect: %s\n", path)
}
