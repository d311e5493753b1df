package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"tellerdesk/internal/managerchat"
)

// runManagerMode opens a customer-scoped review chat behind the placeholder
// credential gate.
func runManagerMode(ctx context.Context, env *runtimeEnv, customerID string) {
	s := bufio.NewScanner(os.Stdin)

	if env.Config.ManagerPasscode != "" {
		fmt.Print("passcode: ")
		if !s.Scan() {
			return
		}
		if !env.Gate.Authenticate(strings.TrimSpace(s.Text())) {
			printError("access denied")
			return
		}
	}

	m := managerchat.New(env.Client, env.Sessions, env.Decisions, customerID)
	if err := m.Open(ctx); err != nil {
		printError(m.LastError())
	}
	renderTranscript(m.Transcript())

	if rec, ok := env.Decisions.Record(customerID); ok {
		fmt.Printf("Current decision: %s (%s)\n", orDash(rec.Decision), rec.Reason)
	}

	fmt.Println(managerHelpText)
	prompt := fmt.Sprintf("manager %s> ", customerID)

	for {
		fmt.Print(promptStyle.Render(prompt))
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "/close":
			if err := m.Close(ctx); err != nil {
				printError(err.Error())
			}
			return
		case "/approve", "/reject", "/review":
			decision := strings.ToUpper(strings.TrimPrefix(cmd, "/"))
			if err := m.Save(ctx, decision, rest); err != nil {
				printError(err.Error())
				break
			}
			fmt.Printf("Saved: %s for %s\n", decision, customerID)
		case "/record":
			if rec, ok := env.Decisions.Record(customerID); ok {
				fmt.Printf("Decision: %s\nReason: %s\nUpdated: %s\n",
					orDash(rec.Decision), rec.Reason, orDash(rec.UpdatedAt))
			} else {
				fmt.Println("No decision recorded for this customer.")
			}
		case "/help":
			fmt.Println(managerHelpText)
		default:
			if strings.HasPrefix(cmd, "/") {
				printError("unknown command " + cmd + " (try /help)")
				break
			}
			if err := m.Send(ctx, line); err != nil {
				printError(m.LastError())
			}
			msgs := m.Transcript()
			if len(msgs) > 0 {
				renderMessage(msgs[len(msgs)-1])
			}
		}
	}
}

const managerHelpText = `Manager commands:
  /approve <reason>   approve this customer's loan
  /reject <reason>    reject this customer's loan
  /review <reason>    send the decision back to review
  /record             show the stored decision record
  /close              close the review (refreshes the table after a save)`

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
