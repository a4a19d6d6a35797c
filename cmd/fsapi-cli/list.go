package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/clientcli"
)

func newListCmd(kind clientcli.ListKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " [dir]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			result, err := client.List(cmd.Context(), clientcli.ListOptions{Dir: dir, Kind: kind})
			if err != nil {
				return err
			}

			return getFormatter().FormatList(os.Stdout, result)
		},
	}
}

func init() {
	lsCmd := newListCmd(clientcli.ListAll, "List files and directories")
	lsCmd.Example = `  fsapi-cli ls
  fsapi-cli ls projects/2024
  fsapi-cli ls --json docs`

	rootCmd.AddCommand(
		lsCmd,
		newListCmd(clientcli.ListFiles, "List files only"),
		newListCmd(clientcli.ListDirs, "List directories only"),
	)
}
