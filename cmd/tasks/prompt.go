package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amonks/tasklist/internal/editor"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm asks question until the answer is yes or no. End of input
// counts as no.
func (p Prompter) Confirm(question string) (bool, error) {
	reader := bufio.NewReader(p.In)
	for {
		if _, err := fmt.Fprintf(p.Out, "%s [y/n] ", question); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.Out)
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}
	}
}

// isInteractive reports whether prompts and editors can be used.
var isInteractive = editor.IsInteractive
