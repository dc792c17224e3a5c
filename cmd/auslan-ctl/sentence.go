package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/auslanlive/auslan-client/internal/ipc"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Force a prediction from the buffered frames",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdPredict}); err != nil {
			return err
		}
		fmt.Println("Prediction requested")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the recognized sentence",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdClear}); err != nil {
			return err
		}
		fmt.Println("Sentence cleared")
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <word>",
	Short: "Answer the open disambiguation prompt with a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdSelect, Args: args}); err != nil {
			return err
		}
		fmt.Printf("Selected %q\n", args[0])
		return nil
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Dismiss the open disambiguation prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdSkip}); err != nil {
			return err
		}
		fmt.Println("Prompt skipped")
		return nil
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace <word-id> <word>",
	Short: "Replace a recognized word (word ids come from 'auslan-ctl status')",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("word-id must be a number, got %q", args[0])
		}
		if err := send(ipc.Command{Name: ipc.CmdReplace, Args: args}); err != nil {
			return err
		}
		fmt.Printf("Replacing word %s with %q\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(replaceCmd)
}
