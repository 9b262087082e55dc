package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/watchdog/internal/audit"
	"github.com/ppiankov/watchdog/internal/model"
)

var (
	auditTail   int
	auditAction string
	auditPath   string
	auditJSON   bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read back the decision audit log",
	Long: `Print records from the append-only audit log, oldest first.

Example:
  watchdog audit --tail 20
  watchdog audit --action BLOCK --json`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVar(&auditTail, "tail", 0, "show only the last N matching records")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "filter by final action (ALLOW, WARN, BLOCK)")
	auditCmd.Flags().StringVar(&auditPath, "path", "", "audit log path (overrides audit.path)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print full records as JSON lines")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Audit.Path
	if auditPath != "" {
		path = auditPath
	}

	filter := audit.Filter{Tail: auditTail}
	if auditAction != "" {
		action := model.Action(strings.ToUpper(auditAction))
		switch action {
		case model.ActionAllow, model.ActionWarn, model.ActionBlock:
		default:
			return fmt.Errorf("unknown action %q (expected ALLOW, WARN or BLOCK)", auditAction)
		}
		filter.Action = action
	}

	records, skipped, err := audit.ReadFile(path, filter)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d malformed line(s) in %s\n", skipped, path)
	}

	out := cmd.OutOrStdout()
	if auditJSON {
		for _, rec := range records {
			if err := writeJSONLine(out, rec); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tRISK\tDOMAIN\tAUTO-BLOCK\tPROMPT")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\t%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.FinalAction, rec.RiskScore, rec.Domain, rec.AutoBlock, truncate(rec.Prompt, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
