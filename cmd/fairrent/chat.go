package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fairrent/internal/model"
	"fairrent/internal/service"
)

func (a *app) chatCmd() *cobra.Command {
	var in model.PropertyInput
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Negotiate with the rent strategist",
		Long: `chat opens a conversation with the assistant service. When a property is
given with --city and --bhk, an estimate is run first and the strategist sees it.
A failed estimate is reported and the chat goes on without one.
Type "exit" or "quit", or send EOF, to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.renderer()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			session := a.newSession()

			if in.City != "" {
				catalog, err := a.catalog()
				if err != nil {
					return err
				}
				q, err := catalog.ResolveInput(in, true)
				if err != nil {
					return err
				}
				if err := a.estimate(cmd, session, q); err != nil {
					// The strategist still answers, without an estimate.
					fmt.Fprintln(out, severedStyle.Render(err.Error()))
				} else {
					fmt.Fprintln(out, renderEstimate(q.WithDefaults(), session.Valuation.View()))
				}
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, titleStyle.Render("Fair Rent Strategist"))
			fmt.Fprintln(out, mutedStyle.Render(`Ask about the rent, the locality or how to negotiate. "exit" leaves.`))

			conv := session.Conversation
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, promptStyle.Render("> "))
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "exit", "quit":
					return nil
				}

				ex, ok := conv.SubmitUserTurn(line)
				if !ok {
					continue
				}
				fmt.Fprintln(out, mutedStyle.Render(service.PlaceholderText))

				reply, err := conv.RequestAssistantReply(cmd.Context(), ex)
				if err != nil {
					fmt.Fprintln(out, severedStyle.Render(service.SeveredText))
					continue
				}
				text, err := r.Markdown(reply)
				if err != nil {
					text = r.Literal(reply)
				}
				fmt.Fprint(out, text)
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}
	bindProperty(cmd, "", &in)
	return cmd
}
