package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewConversationsCommand(api *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage conversations",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := api.Client()
			if err != nil {
				return err
			}
			resp, err := c.ListConversations(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
			for _, conv := range resp.Conversations {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", conv.ID, conv.DisplayTitle, conv.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of conversations")

	var title string
	create := &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := api.Client()
			if err != nil {
				return err
			}
			var t *string
			if title != "" {
				t = &title
			}
			conv, err := c.CreateConversation(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "Conversation title")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := api.Client()
			if err != nil {
				return err
			}
			return c.DeleteConversation(cmd.Context(), args[0])
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := api.Client()
			if err != nil {
				return err
			}
			t, err := c.Transcript(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, turn := range t.Turns {
				fmt.Fprintf(out, "[%s] %s\n", turn.Role, turn.Content)
			}
			fmt.Fprintf(out, "\n%d files, state %s\n", len(t.Files), t.State)
			return nil
		},
	}

	cmd.AddCommand(list, create, del, show)
	return cmd
}
