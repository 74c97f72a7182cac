package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/opencv"
)

var attendCmd = &cobra.Command{
	Use:   "attend",
	Short: "Recognize faces and mark attendance",
	Long: `Open the camera and mark every recognized person present, at most once
per day. Unrecognized faces are boxed in red and labelled Unknown.

Press ESC in the camera window (or Ctrl+C) to stop.`,
	RunE: runAttend,
}

func init() {
	rootCmd.AddCommand(attendCmd)

	attendCmd.Flags().Float64("threshold", 0, "Override the recognition threshold (lower = stricter)")
}

func runAttend(cmd *cobra.Command, args []string) error {
	a, err := newApp(true, mustGetFloat64(cmd, "threshold"))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.kiosk.Startup(ctx); err != nil {
		return err
	}

	window := opencv.NewWindow("Attendance")
	defer window.Close()

	res, err := a.kiosk.Attend(ctx, kiosk.Controls{Display: window, Notify: printEvent})
	if errors.Is(err, kiosk.ErrNoKnownFaces) {
		return fmt.Errorf("%w (run 'attendance-kiosk enroll <name>')", err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Printf("\nProcessed %d frames, marked %d present\n", res.Frames, len(res.Marked))
	for _, r := range res.Marked {
		fmt.Printf("  %s at %s\n", r.Name, r.Time)
	}
	return nil
}

// printEvent reports mode notifications on stdout.
func printEvent(e kiosk.Event) {
	if e.Message != "" {
		fmt.Println(e.Message)
	}
}
