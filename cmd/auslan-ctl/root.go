package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auslanlive/auslan-client/internal/ipc"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=..."
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "auslan-ctl",
	Short: "Control the AuslanLive translation daemon",
	Long: `auslan-ctl sends commands to a running auslan-core daemon and shows its
state. The daemon translates Auslan sign video to written English and
written English to sign video.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// send hands one command to the daemon through the command file.
func send(cmd ipc.Command) error {
	if err := ipc.WriteCommand(cmd); err != nil {
		return fmt.Errorf("could not reach daemon (is auslan-core running?): %w", err)
	}
	return nil
}
