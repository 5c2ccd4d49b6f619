package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mechlink-go/pkg/mlog"
)

var (
	logLevel  string
	logFormat string

	log = mlog.New("mechlink")
)

var rootCmd = &cobra.Command{
	Use:   "mechlink",
	Short: "Planar mechanism kinematics engine",
	Long: `mechlink loads .mech linkage descriptions and computes joint
positions either by closed-form triangulation or by numerical
constraint solving, optionally sweeping a driving input and streaming
the result over websocket.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(mlog.ParseLevel(logLevel))
		if logFormat == "json" {
			log.SetFormat(mlog.FormatJSON)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}
