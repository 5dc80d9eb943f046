package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/subcommands"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCmd talks to the finance assistant
type chatCmd struct {
	app     *App
	reset   bool
	history bool
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "ask the finance assistant" }
func (*chatCmd) Usage() string {
	return `finai chat [-reset] [-history] [<message>...]

  Sends a message to the assistant and prints its answer. The assistant may change assets;
  the tracker reloads them after every answer.
`
}

func (c *chatCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.reset, "reset", false, "Start a new conversation")
	f.BoolVar(&c.history, "history", false, "Print the conversation so far")
}

func (c *chatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.reset {
		if err := c.app.call(ctx, http.MethodDelete, "/api/view/chat", nil, nil); err != nil {
			return c.app.fail(err)
		}
	}

	if c.history {
		var msgs []chatMessage
		if err := c.app.call(ctx, http.MethodGet, "/api/view/chat", nil, &msgs); err != nil {
			return c.app.fail(err)
		}
		c.app.printMarkdown(renderConversation(msgs))
	}

	text := strings.TrimSpace(strings.Join(f.Args(), " "))
	if text == "" {
		if c.reset || c.history {
			return subcommands.ExitSuccess
		}
		fmt.Fprintln(c.app.Err, c.Usage())
		return subcommands.ExitUsageError
	}

	var resp struct {
		Reply chatMessage `json:"reply"`
	}
	if err := c.app.call(ctx, http.MethodPost, "/api/view/chat", map[string]string{"message": text}, &resp); err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(resp.Reply.Content + "\n")
	return subcommands.ExitSuccess
}

func renderConversation(msgs []chatMessage) string {
	if len(msgs) == 0 {
		return "_No conversation yet._\n"
	}
	var b strings.Builder
	for _, m := range msgs {
		who := "Assistant"
		if m.Role == string(domain.ChatRoleUser) {
			who = "You"
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", who, m.Content)
	}
	return b.String()
}
