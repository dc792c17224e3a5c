package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auslanlive/auslan-client/internal/ipc"
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>...",
	Short: "Translate English text to an Auslan sign video",
	Long: `Translate English text to an Auslan sign video. The daemon must be in
text-to-video mode (see 'auslan-ctl swap'). The result appears in
'auslan-ctl status' once the backend answers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdTranslate, Args: args}); err != nil {
			return err
		}
		fmt.Println("Translation requested - check 'auslan-ctl status' for the result")
		return nil
	},
}

var grammarCmd = &cobra.Command{
	Use:       "grammar on|off",
	Short:     "Always show the Auslan grammar text alongside videos",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "on" && args[0] != "off" {
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		if err := send(ipc.Command{Name: ipc.CmdGrammar, Args: args}); err != nil {
			return err
		}
		fmt.Printf("Grammar display turned %s\n", args[0])
		return nil
	},
}

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Shut down the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdQuit}); err != nil {
			return err
		}
		fmt.Println("Shutdown requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(grammarCmd)
	rootCmd.AddCommand(quitCmd)
}
