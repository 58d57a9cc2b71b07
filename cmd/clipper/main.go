package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "clipper",
	Short: "Local timeline clipping agent",
	Long: `Clipper loads videos, keeps editing sessions with split points and a
trim selection, and cuts the result into clips with ffmpeg. Run "clipper serve"
for the local HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(trimCmd)
}
