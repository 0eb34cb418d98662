package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gwi.com/wishlist-assistant/internal/config"
	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/store"
)

const localOwner = "local"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Starts an interactive session against the configured store.

Commands:
  /new          start a fresh conversation
  /list         list saved conversations
  /switch <id>  make a saved conversation active
  /quit         exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(cmd.Context(), chatConfig(config.AppConfig))
		if err != nil {
			return err
		}
		defer c.Close()

		svc := c.sessions.Get(cmd.Context(), localOwner)
		return runREPL(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// chatConfig runs the REPL on the in-memory store unless a backend was chosen
// with --store or STORE_BACKEND.
func chatConfig(cfg config.Config) config.Config {
	if storeBackend != "" {
		return cfg
	}
	if _, set := os.LookupEnv("STORE_BACKEND"); !set {
		cfg.StoreBackend = "memory"
	}
	return cfg
}

func runREPL(ctx context.Context, svc *core.ChatService, in io.Reader, out io.Writer) error {
	repo := svc.Repository()
	printConversation(out, repo.Active())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/new":
			printConversation(out, repo.NewChat())
		case line == "/list":
			active := repo.Active()
			for _, conv := range repo.ListAll() {
				marker := " "
				if conv.ID == active.ID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s (%d messages)\n", marker, conv.ID, conv.TitleOrEmpty(), len(conv.Messages))
			}
		case strings.HasPrefix(line, "/switch ") || line == "/switch":
			fields := strings.Fields(line)
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: /switch <id>")
				continue
			}
			id := fields[1]
			if !repo.SwitchActive(id) {
				fmt.Fprintf(out, "no saved conversation %q\n", id)
				continue
			}
			printConversation(out, repo.Active())
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(out, "unknown command %q\n", strings.Fields(line)[0])
		default:
			conv, err := svc.Send(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printMessage(out, conv.Messages[len(conv.Messages)-1])
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func printConversation(out io.Writer, conv store.Conversation) {
	if title := conv.TitleOrEmpty(); title != "" {
		fmt.Fprintf(out, "== %s ==\n", title)
	}
	for _, msg := range conv.Messages {
		printMessage(out, msg)
	}
}

func printMessage(out io.Writer, msg store.Message) {
	fmt.Fprintf(out, "[%s] %s\n", msg.Role, msg.Content)
	for i, p := range msg.Products {
		fmt.Fprintf(out, "  %d. %s", i+1, p.Name())
		if price := p.Price(); price != "" {
			fmt.Fprintf(out, " (%s)", price)
		}
		fmt.Fprintln(out)
		if desc := p.Description(); desc != "" {
			fmt.Fprintf(out, "     %s\n", desc)
		}
	}
}
