// In file: internal/console/console.go

// Package console is the line-oriented terminal I/O used by the menus, the
// interactive session and the evaluation harness. It reads whole lines so the
// same code runs against a terminal, a pipe or a scripted reader in tests.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Console reads trimmed lines from in and writes prompts and output to out.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Console.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Prompt writes label, then reads one line and returns it without surrounding
// whitespace. io.EOF is returned only when no input at all is left.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Println writes a line to the output.
func (c *Console) Println(a ...interface{}) {
	fmt.Fprintln(c.out, a...)
}

// Printf writes formatted output.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

// Writer exposes the output stream.
func (c *Console) Writer() io.Writer {
	return c.out
}
