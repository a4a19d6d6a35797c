package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:     "zfs [dir]",
	Aliases: []string{"download"},
	Short:   "Download a directory as a zip archive",
	Long: `Download a directory as a zip archive.

Without --output the archive is saved under the name the server suggests,
<dir>.zip, or <user>.zip for your top directory.

Examples:
  fsapi-cli zfs
  fsapi-cli zfs photos -o ./photos-backup.zip
  fsapi-cli zfs --stdout docs > docs.zip`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write the archive to stdout")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	localPath := downloadOutput
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{Dir: dir, LocalPath: localPath})
	if err != nil {
		return err
	}

	if reader != nil {
		if err := copyOut(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata would corrupt the archive on stdout.
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
