package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter reads form input. Passwords are read with echo off when stdin is
// a real terminal; under a pipe (tests, scripts) they fall back to plain
// lines.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *Prompter) ReadLine(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) ReadPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.ReadLine(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (p *Prompter) ReadFloat(label string) (float64, error) {
	line, err := p.ReadLine(label)
	if err != nil {
		return 0, err
	}
	if line == "" {
		return 0, nil
	}
	return strconv.ParseFloat(line, 64)
}

func (p *Prompter) Confirm(label string) (bool, error) {
	line, err := p.ReadLine(label + " [y/N]")
	if err != nil {
		return false, err
	}
	line = strings.ToLower(line)
	return line == "y" || line == "yes", nil
}
