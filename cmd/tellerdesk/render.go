package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"tellerdesk/internal/chat"
	"tellerdesk/internal/decisions"
	"tellerdesk/internal/transcript"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func printError(text string) {
	if text == "" {
		return
	}
	fmt.Println(errorStyle.Render("! " + text))
}

func renderLastAgentMessage(controller *chat.Controller) {
	msgs := controller.Transcript()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Sender != transcript.SenderAgent {
		return
	}
	renderMessage(last)
}

func renderMessage(msg transcript.Message) {
	label := "agent"
	style := agentStyle
	if msg.Sender == transcript.SenderUser {
		label = "you"
		style = userStyle
	}
	for i, line := range strings.Split(msg.Text, "\n") {
		prefix := label + "> "
		if i > 0 {
			prefix = strings.Repeat(" ", len(label)) + "  "
		}
		fmt.Println(style.Render(prefix + line))
	}
}

func renderTranscript(msgs []transcript.Message) {
	for _, msg := range msgs {
		renderMessage(msg)
	}
}

func renderDecisionTable(store *decisions.Store) {
	if fetchErr := store.FetchError(); fetchErr != "" {
		printError("could not load decisions: " + fetchErr)
		return
	}
	records := store.Records()
	if len(records) == 0 {
		fmt.Println("No decisions recorded yet.")
		return
	}

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("Customer")+"\t"+headerStyle.Render("Decision")+"\t"+headerStyle.Render("Updated")+"\t"+headerStyle.Render("Reason"))
	for _, customerID := range sortedKeys(records) {
		rec := records[customerID]
		decision := rec.Decision
		if decision == "" {
			decision = "-"
		}
		updated := rec.UpdatedAt
		if updated == "" {
			updated = "-"
		}
		fmt.Fprintln(w, idStyle.Render(customerID)+"\t"+decision+"\t"+dateStyle.Render(updated)+"\t"+rec.Reason)
	}
	_ = w.Flush()
}

func renderHistory(ctx context.Context, env *runtimeEnv) {
	if env.History == nil {
		printError("archive unavailable")
		return
	}
	sessions, err := env.History.Sessions(ctx)
	if err != nil {
		printError(err.Error())
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No archived sessions.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  (%d messages)\n",
			idStyle.Render(s.SessionID),
			dateStyle.Render(s.ArchivedAt.Format("2006-01-02 15:04")),
			s.MessageCount)
	}
}

func renderSearch(env *runtimeEnv, query string) {
	if env.Search == nil {
		printError("search unavailable")
		return
	}
	results, err := env.Search.Search(query, 10)
	if err != nil {
		printError(err.Error())
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range results {
		text := r.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("%s %s: %s\n", idStyle.Render(r.SessionID), r.Sender, strings.ReplaceAll(text, "\n", " "))
	}
}

func sortedKeys(records map[string]decisions.Record) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
