package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/capitalize-ai/appbuilder/internal/client"
)

// APIFlags select the server and credentials.
type APIFlags struct {
	Server string
	Token  string
}

func NewAPIFlags() *APIFlags {
	server := os.Getenv("APPBUILDER_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	return &APIFlags{
		Server: server,
		Token:  os.Getenv("APPBUILDER_TOKEN"),
	}
}

func (f *APIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Server, "server", f.Server, "API base URL (env APPBUILDER_SERVER)")
	fs.StringVar(&f.Token, "token", f.Token, "Bearer token (env APPBUILDER_TOKEN)")
}

func (f *APIFlags) Client() (*client.Client, error) {
	if f.Token == "" {
		return nil, fmt.Errorf("no token: pass --token or set APPBUILDER_TOKEN")
	}
	return client.New(f.Server, f.Token), nil
}

func NewRootCommand() *cobra.Command {
	api := NewAPIFlags()

	cmd := &cobra.Command{
		Use:           "appbuilder",
		Short:         "Generate and refine Next.js applications from prompts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	api.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewGenerateCommand(api),
		NewConversationsCommand(api),
		NewTokenCommand(),
	)
	return cmd
}
