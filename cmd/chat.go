package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docwise/docwise/internal/assistant"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat about the documentation",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	session := assistant.NewSession(a.engine)

	fmt.Printf("Docwise %s - ask me about Streamlit\n", AppVersion)
	fmt.Println("Commands: /restart clears the conversation, /exit quits")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Println("\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(input, session) {
				return nil
			}
			continue
		}

		answer, err := session.Ask(ctx, input, printFragment)
		switch {
		case err == nil:
			fmt.Println()
		case answer != "":
			// Partial answer already printed; the rest was lost.
			fmt.Println()
			fmt.Fprintf(os.Stderr, "Error: answer interrupted: %v\n", err)
		case errors.Is(err, context.Canceled):
			return nil
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}
}

// handleCommand processes slash commands. Returns true on exit.
func handleCommand(input string, session *assistant.Session) bool {
	switch input {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true
	case "/restart":
		session.Reset()
		fmt.Println("Conversation cleared.")
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /restart  clear the conversation and start over")
		fmt.Println("  /exit     quit")
	default:
		fmt.Printf("Unknown command %q. Try /help.\n", input)
	}
	return false
}

// printFragment streams answer fragments to stdout as they arrive.
func printFragment(_ context.Context, fragment string) error {
	_, err := fmt.Print(fragment)
	return err
}
