// Package nedsa ties the frontend, preprocessor, and compiler together into
// a single pipeline from nedsascript source text to a runnable automaton,
// and provides an interactive session for pasting in scripts and seeing
// both evaluators' outcomes immediately.
package nedsa

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dekarrin/nedsa/internal/automaton"
	"github.com/dekarrin/nedsa/internal/compile"
	"github.com/dekarrin/nedsa/internal/frontend"
	"github.com/dekarrin/nedsa/internal/input"
	"github.com/dekarrin/nedsa/internal/preprocess"
	"github.com/dekarrin/rosed"
)

const consoleOutputWidth = 80

// CompileSource parses, preprocesses, and compiles the nedsascript source
// src (attributed to filename in any syntax errors) into a NESA. logger, if
// non-nil, receives the compiler's diagnostic output, including the
// worst-case decide-table estimate.
func CompileSource(src, filename string, logger *log.Logger) (*automaton.NESA, error) {
	prog, err := frontend.Parse(src, filename)
	if err != nil {
		return nil, err
	}

	pre, err := preprocess.Run(prog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	c := compile.New(pre.Variables, pre.Alphabet, logger)
	transitions, err := c.Compile(pre.Blocks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return automaton.New(transitions), nil
}

// Session is an interactive prompt for pasting in nedsascript source and
// immediately seeing both the direct-run and decider outcomes.
type Session struct {
	in      *input.InteractiveCommandReader
	out     *bufio.Writer
	logger  *log.Logger
	running bool
}

// NewSession creates a Session reading from stdin with GNU-readline
// editing and writing to stdout. The returned Session must have Close
// called on it before disposal to release readline resources.
func NewSession(logger *log.Logger) (*Session, error) {
	in, err := input.NewInteractiveReader()
	if err != nil {
		return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
	}

	return &Session{
		in:     in,
		out:    bufio.NewWriter(os.Stdout),
		logger: logger,
	}, nil
}

// Close releases readline resources associated with the Session.
func (s *Session) Close() error {
	if s.running {
		return fmt.Errorf("cannot close a running session")
	}
	return s.in.Close()
}

func (s *Session) write(msg string) error {
	wrapped := rosed.Edit(msg).Wrap(consoleOutputWidth).String()
	if _, err := s.out.WriteString(wrapped + "\n"); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	return s.out.Flush()
}

// RunUntilQuit repeatedly reads one nedsascript program (one or more lines,
// terminated with a blank line), compiles it, and prints both the direct-run outcome and the
// decider's outcome, continuing until EOF or the ":quit" command.
func (s *Session) RunUntilQuit() error {
	if err := s.write("nedsa interactive session\n==========================\nPaste a program, end with a blank line, or :quit to exit."); err != nil {
		return err
	}

	s.in.AllowBlank(true)
	defer s.in.AllowBlank(false)

	s.running = true
	defer func() { s.running = false }()

	for s.running {
		src, err := s.readProgram()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read program: %w", err)
		}
		if strings.TrimSpace(src) == ":quit" {
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}

		n, compErr := CompileSource(src, "<session>", s.logger)
		if compErr != nil {
			if err := s.write(compErr.Error()); err != nil {
				return err
			}
			continue
		}

		runOutcome := automaton.Clean(n.Run())
		decideOutcome := automaton.Clean(n.Decide(s.logger))

		if err := s.write(fmt.Sprintf("run:    %s\ndecide: %s", runOutcome, decideOutcome)); err != nil {
			return err
		}
	}

	return s.write("Goodbye")
}

// readProgram reads lines from the session's reader until a blank line or
// EOF, joining them with newlines.
func (s *Session) readProgram() (string, error) {
	var lines []string
	s.in.SetPrompt("nedsa> ")
	for {
		line, err := s.in.ReadCommand()
		if err == io.EOF {
			if len(lines) == 0 {
				return "", io.EOF
			}
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
		s.in.SetPrompt("...... ")
	}
	return strings.Join(lines, "\n"), nil
}
