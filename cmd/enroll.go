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

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Capture a face and add it to the gallery",
	Long: `Open the camera with detected faces boxed in green. Press SPACE to store
the first detected face under <name>, or ESC to cancel.

Names may not contain underscores or path separators.

Example:
  attendance-kiosk enroll carol`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	a, err := newApp(true, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.kiosk.Startup(ctx); err != nil {
		return err
	}

	window := opencv.NewWindow("Enroll " + args[0])
	defer window.Close()

	res, err := a.kiosk.Enroll(ctx, args[0], kiosk.Controls{Display: window})
	if errors.Is(err, context.Canceled) {
		fmt.Println("Enrollment cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	if !res.Captured {
		fmt.Println("Enrollment cancelled")
		return nil
	}
	fmt.Printf("Face for %s captured: %s\n", res.Identity, res.Path)
	return nil
}
