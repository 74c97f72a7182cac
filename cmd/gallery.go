package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Load the face gallery and list enrolled people",
	Long: `Scan the gallery directory, train the recognizer on every readable
thumbnail and print the enrolled identities with their sample counts.`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)

	galleryCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

func runGallery(cmd *cobra.Command, args []string) error {
	a, err := newApp(false, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	var progress gallery.Progress
	if !mustGetBool(cmd, "no-progress") {
		progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Loading faces"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetItsString("faces"),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(done)
		}
	}

	snap, err := a.kiosk.Reload(context.Background(), progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if errors.Is(err, gallery.ErrNoKnownFaces) {
		fmt.Printf("No known faces in %s. Enroll someone with 'attendance-kiosk enroll <name>'.\n", a.gallery.Dir())
		return nil
	}
	if err != nil {
		return err
	}

	summary := snap.Summary()
	fmt.Printf("Loaded %d faces of %d people from %s\n\n", snap.Len(), len(summary), a.gallery.Dir())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tSAMPLES")
	fmt.Fprintln(w, "--------\t-------")
	for _, s := range summary {
		fmt.Fprintf(w, "%s\t%d\n", s.Identity, s.Samples)
	}
	return w.Flush()
}
