package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/audit"
	"github.com/sagarc03/fsapi/config"
	"github.com/sagarc03/fsapi/database"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect stored audit events",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events, newest first",
	Long: `List audit events stored by the database audit backend.

Examples:
  # Last 20 failures of alice
  fsapi audit list --user alice --event auth_failure --limit 20`,
	RunE: runAuditList,
}

var (
	auditUser  string
	auditEvent string
	auditLimit int
	auditJSON  bool
)

func init() {
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "only events of this user")
	auditListCmd.Flags().StringVar(&auditEvent, "event", "", "only events of this kind (auth_success, auth_failure, no_root, root_failure)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", audit.DefaultListLimit, "maximum number of events")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "output one JSON object per line")

	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	events, err := db.GetRepo().List(ctx, audit.ListQuery{
		Identity: auditUser,
		Event:    auditEvent,
		Limit:    auditLimit,
	})
	if err != nil {
		return fmt.Errorf("list audit events: %w", err)
	}

	out := cmd.OutOrStdout()
	if auditJSON {
		enc := json.NewEncoder(out)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tUSER\tACTION\tREASON\tREMOTE")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Event, e.Identity, e.Action, e.Reason, e.Remote)
	}
	return tw.Flush()
}
