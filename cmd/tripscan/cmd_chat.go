package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/tripscan/internal/chat"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/spf13/cobra"
)

func newMessagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Print the group chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSynchronizer(a)
			if err := s.FetchMessages(cmd.Context()); err != nil {
				return fmt.Errorf("fetching messages: %w", err)
			}
			printMessages(cmd.OutOrStdout(), s.Snapshot().Messages)
			return nil
		},
	}
}

func newSendCmd(a *app) *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Send a message to the group chat",
		Example: `  tripscan send "Somewhere with a beach?"
  tripscan send --image beach.jpg "This one"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")

			var image []byte
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("reading image: %w", err)
				}
				image = data
			}
			if strings.TrimSpace(content) == "" && len(image) == 0 {
				return fmt.Errorf("nothing to send: give some text or --image")
			}

			s := newSynchronizer(a)
			if err := s.SendMessage(cmd.Context(), content, image); err != nil {
				return fmt.Errorf("sending message: %w", err)
			}
			printMessages(cmd.OutOrStdout(), s.Snapshot().Messages)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "attach an image file")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the group chat for everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newSynchronizer(a).ClearMessages(cmd.Context()); err != nil {
				return fmt.Errorf("clearing chat: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Chat cleared.")
			return nil
		},
	}
}

// newSynchronizer returns a synchronizer for one-shot use; it is never
// started, so there is no poll loop to stop.
func newSynchronizer(a *app) *chat.Synchronizer {
	return chat.New(a.client, a.identity.Current(), a.cfg.GetPollInterval(), a.logger)
}

func printMessages(w io.Writer, msgs []models.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, m := range msgs {
		when := ""
		if !m.Timestamp.IsZero() {
			when = humanize.Time(m.Timestamp)
		}
		fmt.Fprintf(w, "[%s] %s: %s", when, m.User.Name, m.Content)
		if m.HasImage() {
			fmt.Fprint(w, " [image]")
		}
		if m.Pending {
			fmt.Fprint(w, " (not delivered)")
		}
		fmt.Fprintln(w)
	}
}
