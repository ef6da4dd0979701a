// Package cli provides the interactive terminal chat session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	"git.home.luguber.info/inful/shopassist/internal/chat"
	"git.home.luguber.info/inful/shopassist/internal/export"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// CLI runs a terminal shopping-assistant conversation.
type CLI struct {
	chatSvc  *chat.Service
	store    store.Store
	norm     export.LinkRewriter
	session  chat.Session
	readline *readline.Instance
	out      io.Writer
}

// New creates a CLI instance starting a fresh conversation.
func New(chatSvc *chat.Service, st store.Store, norm export.LinkRewriter) *CLI {
	return &CLI{
		chatSvc: chatSvc,
		store:   st,
		norm:    norm,
		session: chat.NewSession(),
		out:     os.Stdout,
	}
}

// Run starts the interactive session and blocks until the user exits.
func (c *CLI) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            PromptStyle.Render("you> "),
		HistoryFile:       filepath.Join(os.TempDir(), ".shopassist_history"),
		AutoComplete:      buildAutoCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	c.readline = rl
	defer rl.Close()

	c.printWelcome()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		} else if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "/exit" || line == "/quit" || line == "/q" {
			fmt.Fprintln(c.out, DimStyle.Render("Happy shopping!"))
			return nil
		}

		if err := c.processInput(ctx, line); err != nil {
			fmt.Fprintln(c.out, FormatError(err.Error()))
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	return nil
}

func buildAutoCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/help"),
		readline.PcItem("/new"),
		readline.PcItem("/chats"),
		readline.PcItem("/open"),
		readline.PcItem("/wishlist"),
		readline.PcItem("/export",
			readline.PcItem("markdown"),
			readline.PcItem("html"),
			readline.PcItem("json"),
		),
		readline.PcItem("/exit"),
		readline.PcItem("/quit"),
		readline.PcItem("/q"),
	)
}

func (c *CLI) printWelcome() {
	fmt.Fprintln(c.out, HeaderStyle.Render("AI Shopping Assistant"))
	fmt.Fprintln(c.out, DimStyle.Render("Ask about products, prices, or comparisons. Type /help for commands."))
	fmt.Fprintln(c.out)
	for _, s := range chat.DefaultSuggestions {
		fmt.Fprintln(c.out, InfoStyle.Render("  "+s))
	}
	fmt.Fprintln(c.out)
}

// processInput dispatches a command or sends a chat message.
func (c *CLI) processInput(ctx context.Context, line string) error {
	if strings.HasPrefix(line, "/") {
		return c.processCommand(ctx, line)
	}
	return c.sendMessage(ctx, line)
}

func (c *CLI) processCommand(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		c.printHelp()
		return nil
	case "/new":
		c.session = chat.NewSession()
		fmt.Fprintln(c.out, FormatSuccess("Started a new chat."))
		return nil
	case "/chats":
		return c.listChats(ctx)
	case "/open":
		if len(args) == 0 {
			return errors.New("usage: /open <chat id>")
		}
		return c.openChat(ctx, args[0])
	case "/wishlist":
		return c.showWishlist(ctx)
	case "/export":
		format := export.FormatMarkdown
		if len(args) > 0 {
			format = args[0]
		}
		return c.exportSession(ctx, format)
	default:
		return fmt.Errorf("unknown command %s, type /help", cmd)
	}
}

func (c *CLI) printHelp() {
	fmt.Fprintln(c.out, HeaderStyle.Render("Commands"))
	for _, h := range [][2]string{
		{"/new", "start a fresh conversation"},
		{"/chats", "list saved conversations"},
		{"/open <id>", "resume a saved conversation"},
		{"/wishlist", "show saved products"},
		{"/export [format]", "export this chat (markdown, html, json)"},
		{"/exit", "leave"},
	} {
		fmt.Fprintf(c.out, "  %-18s %s\n", h[0], DimStyle.Render(h[1]))
	}
}

// sendMessage streams one conversation turn to the terminal.
func (c *CLI) sendMessage(ctx context.Context, text string) error {
	session, deltas, err := c.chatSvc.Send(ctx, c.session, text)
	if err != nil {
		return err
	}
	c.session = session

	fmt.Fprint(c.out, AssistantStyle.Render("assistant> "))
	var final *store.Message
	for d := range deltas {
		if d.Replace {
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, FormatWarning("Retrying..."))
			fmt.Fprint(c.out, AssistantStyle.Render("assistant> "))
		}
		fmt.Fprint(c.out, d.Text)
		if d.Message != nil {
			final = d.Message
		}
	}
	fmt.Fprintln(c.out)

	if final != nil {
		c.session.Messages = appendIfMissing(c.session.Messages, *final)
		c.printCitations(final.Citations)
		c.printShoppingTags(affiliate.ShoppingTags(final.Text, final.SearchQueries))
	}
	return nil
}

// appendIfMissing keeps the local session in sync with the persisted
// transcript without duplicating the final message.
func appendIfMissing(messages []store.Message, m store.Message) []store.Message {
	if len(messages) > 0 && messages[len(messages)-1].ID == m.ID {
		return messages
	}
	return append(messages, m)
}

func (c *CLI) printCitations(citations []affiliate.Citation) {
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(c.out, DimStyle.Render("Sources:"))
	for _, cit := range citations {
		label := cit.Title
		if label == "" {
			label = cit.Hostname
		}
		fmt.Fprintf(c.out, "  %s %s\n", label, URLStyle.Render(cit.URI))
	}
}

// printShoppingTags shows the search terms behind the reply so the
// user can jump straight to a product search.
func (c *CLI) printShoppingTags(tags []string) {
	if len(tags) == 0 {
		return
	}
	fmt.Fprintln(c.out, DimStyle.Render("Shop:"))
	for _, tag := range tags {
		fmt.Fprintf(c.out, "  %s\n", InfoStyle.Render(tag))
	}
}

func (c *CLI) listChats(ctx context.Context) error {
	chats, err := c.store.Chats().List(ctx)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(c.out, DimStyle.Render("No saved chats yet."))
		return nil
	}
	fmt.Fprintln(c.out, HeaderStyle.Render("Saved chats"))
	for _, s := range chats {
		fmt.Fprintf(c.out, "  %s  %s %s\n",
			DimStyle.Render(s.ID),
			s.Title,
			DimStyle.Render(fmt.Sprintf("(%d messages)", len(s.Messages))))
	}
	return nil
}

// Open resumes a saved conversation before or during a session.
func (c *CLI) Open(ctx context.Context, id string) error {
	return c.openChat(ctx, id)
}

func (c *CLI) openChat(ctx context.Context, id string) error {
	session, err := c.chatSvc.Load(ctx, id)
	if err != nil {
		return err
	}
	c.session = session
	fmt.Fprintln(c.out, FormatSuccess(fmt.Sprintf("Resumed chat %s (%d messages).", id, len(session.Messages))))
	return nil
}

func (c *CLI) showWishlist(ctx context.Context) error {
	items, err := c.store.Wishlist().List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.out, DimStyle.Render("Wishlist is empty."))
		return nil
	}
	fmt.Fprintln(c.out, HeaderStyle.Render("Wishlist"))
	for _, item := range items {
		fmt.Fprintf(c.out, "  %s\n    %s\n", item.Name, URLStyle.Render(item.URL))
	}
	return nil
}

func (c *CLI) exportSession(ctx context.Context, format string) error {
	if c.session.ChatID == "" || len(c.session.Messages) <= 1 {
		return errors.New("nothing to export yet")
	}

	saved, err := c.store.Chats().Get(ctx, c.session.ChatID)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	exporter, err := export.New(format, c.norm, opts)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(exporter, saved, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, FormatSuccess("Exported to "+path))
	return nil
}
