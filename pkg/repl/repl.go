// Package repl reads user input one line at a time and runs one agent turn
// per line until the user quits.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	// Packages
	lipgloss "github.com/charmbracelet/lipgloss"
	wordwrap "github.com/muesli/reflow/wordwrap"
	zerolog "github.com/rs/zerolog"
	logger "github.com/zhaohuiwang/adk-samples/pkg/logger"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	turn "github.com/zhaohuiwang/adk-samples/pkg/turn"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Turns runs one turn of a session
type Turns interface {
	Run(ctx context.Context, s *session.Session, text string) turn.Result
}

// Loop is the read-eval-print loop of one session
type Loop struct {
	in      io.Reader
	out     io.Writer
	turns   Turns
	session *session.Session
	banner  *Banner
	styled  bool
	width   int
	count   int
}

// Banner is printed before the first prompt
type Banner struct {
	Title    string
	Examples []string
}

// Opt is a loop option
type Opt func(*Loop)

// line is the result of reading one line of input
type line struct {
	text string
	err  error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	QuitCommand = "quit"

	promptUser  = "You > "
	promptAgent = "Agent > "
	msgExit     = "Exiting agent."
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	agentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a loop which reads lines from in and runs turns of the session,
// writing to out. Prompts are styled when out is a terminal.
func New(in io.Reader, out io.Writer, turns Turns, s *session.Session, opts ...Opt) *Loop {
	self := &Loop{
		in:      in,
		out:     out,
		turns:   turns,
		session: s,
		styled:  logger.IsTerminal(out),
	}
	for _, fn := range opts {
		fn(self)
	}
	return self
}

// WithBanner sets the banner printed before the first prompt
func WithBanner(banner Banner) Opt {
	return func(l *Loop) {
		l.banner = &banner
	}
}

// WithStyle forces styled or plain prompts
func WithStyle(styled bool) Opt {
	return func(l *Loop) {
		l.styled = styled
	}
}

// WithWidth wraps the banner to the given width, zero means no wrapping
func WithWidth(width int) Opt {
	return func(l *Loop) {
		l.width = max(width, 0)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run prompts for input until the user quits, the input ends or the
// context is cancelled. Only cancellation returns an error.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan line)
	go l.read(ctx, lines)

	l.printBanner()
	defer fmt.Fprintln(l.out, msgExit)

	for {
		fmt.Fprint(l.out, "\n"+l.style(userStyle, promptUser))

		var input line
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			return ctx.Err()
		case input = <-lines:
		}

		// End of input terminates like quit
		eof := errors.Is(input.err, io.EOF)
		if input.err != nil && !eof {
			return input.err
		}

		text := strings.TrimSpace(input.text)
		switch {
		case strings.EqualFold(text, QuitCommand):
			return nil
		case text == "" && eof:
			fmt.Fprintln(l.out)
			return nil
		case text == "":
			continue
		}

		// Run one turn, synchronously
		fmt.Fprint(l.out, "\n"+l.style(agentStyle, promptAgent))
		result := l.turns.Run(ctx, l.session, input.text)
		fmt.Fprintln(l.out)
		l.count++
		zerolog.Ctx(ctx).Debug().Str("outcome", result.Outcome.String()).Int("turn", l.count).Msg("turn complete")

		if eof {
			return nil
		}
	}
}

// Turns returns the number of turns run
func (l *Loop) Turns() int {
	return l.count
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// read sends lines until the input ends or the context is cancelled. A last
// line without a newline is sent with io.EOF.
func (l *Loop) read(ctx context.Context, lines chan<- line) {
	r := bufio.NewReader(l.in)
	for {
		text, err := r.ReadString('\n')
		text = strings.TrimRight(text, "\r\n")
		select {
		case lines <- line{text: text, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (l *Loop) printBanner() {
	if l.banner == nil || l.banner.Title == "" {
		return
	}
	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, l.style(titleStyle, l.banner.Title))
	fmt.Fprintln(l.out, strings.Repeat("-", len(l.banner.Title)))
	if len(l.banner.Examples) > 0 {
		fmt.Fprintln(l.out, "Examples:")
		for _, example := range l.banner.Examples {
			if l.width > 0 {
				example = wordwrap.String(example, l.width)
			}
			fmt.Fprintln(l.out, l.style(dimStyle, example))
		}
	}
}

func (l *Loop) style(s lipgloss.Style, text string) string {
	if !l.styled {
		return text
	}
	return s.Render(text)
}
