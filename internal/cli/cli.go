// Package cli holds the command-line plumbing around the converter: where the
// document comes from, how the result is printed, and debug output.
package cli

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/mcncl/jyt/internal/codec"
	"github.com/mcncl/jyt/internal/config"
	"github.com/mcncl/jyt/internal/converter"
	"github.com/mcncl/jyt/internal/errors"
)

// Runner executes one conversion for the command line.
type Runner struct {
	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewLogger returns a debug-level text logger on w when debug is set and a
// logger that discards everything otherwise.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Run converts input, or stdin when input is empty, from one format to
// another and prints the result.
func (r *Runner) Run(from, to codec.Format, input string) error {
	text := input
	if text == "" {
		if r.Stdin == nil {
			return errors.NewInputError("nothing to convert", errors.ErrNoInput)
		}
		var err error
		text, err = ReadLines(r.Stdin, r.Config.Newline())
		if err != nil {
			return err
		}
		r.Logger.Debug("read document from stdin", "bytes", len(text))
	}

	r.Logger.Debug("decoding", "format", from.String())
	v, err := converter.Decode(from, text)
	if err != nil {
		return err
	}
	if r.Config.Dev.Debug {
		spew.Fdump(r.Stderr, v)
	}

	r.Logger.Debug("encoding", "format", to.String(), "root", v.Kind().String())
	out, err := converter.Encode(to, v)
	if err != nil {
		return err
	}

	return WriteOutput(r.Stdout, out, r.Config.Output.TrimTrailingNewline)
}

// ReadLines reads r to EOF and joins its lines with newline. Line
// terminators, including a final one, are not part of the result.
func ReadLines(r io.Reader, newline string) (string, error) {
	reader := bufio.NewReader(r)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewInputError("failed to read from stdin", err)
		}
	}
	return strings.Join(lines, newline), nil
}

// WriteOutput prints out followed by a single newline. With trim set,
// trailing whitespace of out is dropped first.
func WriteOutput(w io.Writer, out string, trim bool) error {
	if trim {
		out = strings.TrimRight(out, " \t\r\n")
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
