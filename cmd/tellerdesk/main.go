package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"tellerdesk/internal/chat"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx := context.Background()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tellerdesk", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "Banking-agent API base URL (default from config)")
	decisionsFile := fs.String("decisions", "", "Path to a local decisions.json snapshot")
	watch := fs.Bool("watch", true, "Watch the local decisions snapshot for changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx, *baseURL, *decisionsFile, *watch)
	if err != nil {
		return err
	}
	defer env.Close()

	runChatLoop(ctx, env)
	return nil
}

func runChatLoop(ctx context.Context, env *runtimeEnv) {
	log.Printf("Connected to %s", env.Client.BaseURL())
	if sid := env.Sessions.Get(); sid != "" {
		log.Printf("Resuming session %s", sid)
	}
	fmt.Println(helpText)

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, env, line); quit {
				return
			}
			continue
		}

		sendAndRender(ctx, env.Controller, line)
	}
}

const helpText = `Commands:
  /decisions           show the decision review table
  /manager <customer>  open a manager review chat for one customer
  /new                 start a new session
  /end [message]       end and archive the current session
  /history             list archived sessions
  /search <query>      search archived conversations
  /quit                exit`

// handleCommand dispatches a slash command; returns true to exit the loop.
func handleCommand(ctx context.Context, env *runtimeEnv, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(helpText)
	case "/new":
		env.Controller.StartNew()
		fmt.Println("Started a new session.")
	case "/end":
		message := rest
		if message == "" {
			message = "Thanks, that's all for now."
		}
		if err := env.Controller.SendWith(ctx, message, chat.SendOptions{EndSession: true}); err != nil {
			printError(err.Error())
			break
		}
		renderLastAgentMessage(env.Controller)
		fmt.Println("Session ended and archived.")
	case "/decisions":
		if err := env.Decisions.Fetch(ctx); err != nil {
			printError(err.Error())
		}
		renderDecisionTable(env.Decisions)
	case "/manager":
		if rest == "" {
			printError("usage: /manager <customer_id>")
			break
		}
		runManagerMode(ctx, env, rest)
	case "/history":
		renderHistory(ctx, env)
	case "/search":
		if rest == "" {
			printError("usage: /search <query>")
			break
		}
		renderSearch(env, rest)
	default:
		printError("unknown command " + cmd + " (try /help)")
	}
	return false
}

func sendAndRender(ctx context.Context, controller *chat.Controller, text string) {
	if err := controller.Send(ctx, text); err != nil {
		printError(controller.LastError())
		if controller.LastError() == "" {
			printError(err.Error())
		}
	}
	renderLastAgentMessage(controller)
}
