package ledger

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// NoRecords is printed in place of a table without data rows.
const NoRecords = "No records"

// WriteTable writes rows, header included, as aligned columns. With no data
// row it writes NoRecords instead.
func WriteTable(out io.Writer, rows [][]string) error {
	if len(rows) <= 1 {
		_, err := fmt.Fprintln(out, NoRecords)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}
