package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/clientcli"
)

var uploadCmd = &cobra.Command{
	Use:     "uzu <local-path> [dir]",
	Aliases: []string{"upload"},
	Short:   "Upload a zip archive and extract it on the server",
	Long: `Upload a zip archive and extract it into a directory on the server.

A local directory is zipped on the fly. Existing files with the same names
are overwritten.

Examples:
  fsapi-cli uzu site.zip www
  fsapi-cli uzu ./build releases/v2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	opts := clientcli.UploadOptions{LocalPath: args[0]}
	if len(args) > 1 {
		opts.Dir = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
