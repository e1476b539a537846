package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zulandar/educode/internal/chat"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the copilot",
		Long: `Starts an interactive copilot session. Commands:
  /new            start a new conversation
  /sessions       list conversations
  /switch <key>   switch to another conversation
  /prompts        show suggested questions
  /quit           leave
Press Ctrl-C while an answer streams to abort it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			copilot, err := newCopilot(a)
			if err != nil {
				return errors.Wrap(err, "copilot")
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			return runChat(cmd.Context(), copilot, cmd.InOrStdin(), cmd.OutOrStdout(), sigCh)
		},
	}
}

// runChat reads commands and questions from in until /quit or EOF. A
// value on interrupts aborts the answer being streamed.
func runChat(ctx context.Context, copilot *chat.Copilot, in io.Reader, out io.Writer, interrupts <-chan os.Signal) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out = &lockedWriter{w: out}
	updates, stop := copilot.Subscribe()
	defer stop()
	defer copilot.Wait()
	defer copilot.Cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-interrupts:
				if copilot.Requesting() {
					copilot.Cancel()
				} else {
					fmt.Fprintln(out, "\n(type /quit to leave)")
				}
			}
		}
	}()

	fmt.Fprintln(out, "Hello, I am your coding copilot. Ask anything, or /quit to leave.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/sessions":
			printSessions(out, copilot.Sessions())
		case "/prompts":
			for _, p := range chat.Prompts() {
				fmt.Fprintf(out, "  %s\n", p.Description)
			}
		case "/new":
			s, err := copilot.NewConversation(ctx)
			if err != nil {
				fmt.Fprintln(out, errors.Cause(err).Error())
				continue
			}
			fmt.Fprintf(out, "Started conversation %s\n", s.Key)
		case "/switch":
			if err := copilot.SwitchSession(ctx, strings.TrimSpace(arg)); err != nil {
				fmt.Fprintf(out, "switch: %v\n", err)
				continue
			}
			printHistory(out, copilot.Messages())
		default:
			drain(updates)
			if err := copilot.Submit(ctx, line); err != nil {
				fmt.Fprintln(out, errors.Cause(err).Error())
				continue
			}
			streamAnswer(out, updates)
		}
	}
}

// lockedWriter serializes writes from the REPL loop and the interrupt
// handler.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// drain discards queued snapshots.
func drain(updates <-chan chat.Update) {
	for {
		select {
		case <-updates:
		default:
			return
		}
	}
}

// streamAnswer prints the growing assistant message until the request
// settles.
func streamAnswer(out io.Writer, updates <-chan chat.Update) {
	var shown string
	for u := range updates {
		if n := len(u.Messages); n > 0 && u.Messages[n-1].Role == chat.RoleAssistant {
			last := u.Messages[n-1]
			if strings.HasPrefix(last.Content, shown) {
				fmt.Fprint(out, render(last.Content[len(shown):]))
			} else {
				fmt.Fprint(out, "\n"+render(last.Content))
			}
			shown = last.Content
		}
		if !u.Requesting {
			fmt.Fprintln(out)
			return
		}
	}
}

// render replaces the think markers with terminal-friendly text.
func render(s string) string {
	s = strings.ReplaceAll(s, chat.ThinkOpen, "(thinking) ")
	return strings.ReplaceAll(s, chat.ThinkClose, "\n\n")
}

func printSessions(out io.Writer, sessions []chat.Session) {
	group := ""
	for _, s := range sessions {
		if s.Group != group {
			group = s.Group
			fmt.Fprintf(out, "%s\n", group)
		}
		fmt.Fprintf(out, "  %-14s %s\n", s.Key, s.Label)
	}
}

func printHistory(out io.Writer, msgs []chat.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, "(empty conversation)")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "%s: %s\n", m.Role, strings.TrimSpace(render(m.Content)))
	}
}
