package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

// Console runs an App as a line oriented REPL.
type Console struct {
	app    App
	in     io.Reader
	out    io.Writer
	render func(string) string
}

type ConsoleOption func(*Console)

// WithPlainOutput prints message content as is instead of rendering markdown.
func WithPlainOutput() ConsoleOption {
	return func(c *Console) { c.render = nil }
}

func NewConsole(app App, in io.Reader, out io.Writer, options ...ConsoleOption) *Console {
	c := &Console{app: app, in: in, out: out}
	if glam, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		c.render = func(s string) string {
			rendered, err := glam.Render(s)
			if err != nil {
				return s
			}
			return rendered
		}
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Run starts a session with params and reads user lines until EOF or "exit".
func (c *Console) Run(ctx context.Context, params map[string]string) error {
	sess := NewSession("", params)
	defer sess.listen(c.print)()

	if err := c.app.OnChatStart(ctx, sess); err != nil {
		return fmt.Errorf("starting chat: %w", err)
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Split(bufio.ScanLines)
	for {
		fmt.Fprintf(c.out, "%s: ", color.CyanString(AuthorUser))
		if !scanner.Scan() {
			fmt.Fprintln(c.out, "Exiting...")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			return nil
		}

		sess.record(Message{Author: AuthorUser, Content: input})
		if err := c.app.OnMessage(ctx, sess, input); err != nil {
			fmt.Fprintln(c.out, color.RedString("Error: %v", err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Console) print(ev Event) {
	content := ev.Message.Content
	if c.render != nil {
		content = c.render(content)
	}
	fmt.Fprintf(c.out, "%s: %s\n", color.MagentaString(ev.Message.Author), strings.TrimSpace(content))
}
