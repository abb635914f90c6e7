package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/capitalize-ai/appbuilder/internal/workspace"
)

type GenerateFlags struct {
	ConversationID string
	OutDir         string
}

func (f *GenerateFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConversationID, "conversation", "", "Conversation to continue (default: most recent)")
	fs.StringVar(&f.OutDir, "out", "", "Directory to write the resulting files to")
}

func NewGenerateCommand(api *APIFlags) *cobra.Command {
	f := &GenerateFlags{}

	cmd := &cobra.Command{
		Use:   "generate PROMPT...",
		Short: "Generate or refine an application",
		Long: `Send a prompt to the conversation and print the resulting file tree.
The first prompt in a conversation generates a fresh application; later
prompts refine it and only changed files are returned and merged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := api.Client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			convID := f.ConversationID
			if convID == "" {
				conv, err := c.DefaultConversation(ctx)
				if err != nil {
					return err
				}
				convID = conv.ID
			}

			ws := workspace.New()
			transcript, err := c.Transcript(ctx, convID)
			if err != nil {
				return err
			}
			ws.Restore(*transcript)

			out := cmd.OutOrStdout()
			result, err := c.Generate(ctx, convID, prompt)
			if err != nil {
				ws.Fail(prompt, err)
				fmt.Fprintln(out, ws.Bubbles[len(ws.Bubbles)-1].Content)
				return err
			}
			ws.Apply(prompt, result)

			fmt.Fprintf(out, "conversation %s\n%s\n\n", convID, result.Description)
			fmt.Fprint(out, workspace.Print(ws.Tree()))

			if f.OutDir != "" {
				if err := ws.Export(f.OutDir); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nwrote %d files to %s\n", len(ws.Files), f.OutDir)
			}
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}
