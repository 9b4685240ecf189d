package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

// Prompter asks the operator on a line-oriented terminal.
type Prompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

var _ ports.Prompter = (*Prompter)(nil)

// NewPrompter reads answers from in and writes questions to out. With assumeYes every
// confirmation is answered yes without reading.
func NewPrompter(in io.Reader, out io.Writer, assumeYes bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if p.assumeYes {
		fmt.Fprintf(p.out, "%s [y/N] y\n", question)
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select asks for a 1-based option number until a valid one is given.
func (p *Prompter) Select(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("%s: %w", title, domain.ErrNotFound)
	}

	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fmt.Fprintf(p.out, "Choice [1-%d]: ", len(options))
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}

		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "%q is not a valid choice\n", answer)
	}
}

// Review shows the extracted metadata and asks whether uploads may start.
func (p *Prompter) Review(ctx context.Context, rows []ports.ReviewRow, degraded bool) (bool, error) {
	RenderReview(p.out, rows, degraded)
	return p.Confirm(ctx, "Continue with uploads?")
}

// readLine returns the trimmed next line; end of input counts as an abort.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
		return "", fmt.Errorf("no answer on input: %w", domain.ErrAborted)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
