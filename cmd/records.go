package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show the attendance table",
	Long:  `Print every attendance row in file order, including the header.`,
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().Bool("today", false, "Only show today's attendance")
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	l := ledger.New(cfg.Ledger.Path, ledger.WithLogger(logger))

	rows, err := l.AllRecords()
	if err != nil {
		return fmt.Errorf("failed to read attendance records: %w", err)
	}

	if mustGetBool(cmd, "today") && len(rows) > 1 {
		today, err := l.Today()
		if err != nil {
			return fmt.Errorf("failed to read attendance records: %w", err)
		}
		filtered := [][]string{rows[0]}
		for _, r := range today {
			filtered = append(filtered, []string{r.Name, r.Date, r.Time})
		}
		rows = filtered
	}

	return ledger.WriteTable(os.Stdout, rows)
}
