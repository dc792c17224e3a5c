package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auslanlive/auslan-client/internal/ipc"
)

var cameraCmd = &cobra.Command{
	Use:       "camera on|off",
	Short:     "Start or stop the sign capture camera",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "on":
			if err := send(ipc.Command{Name: ipc.CmdCameraOn}); err != nil {
				return err
			}
			fmt.Println("Camera start requested")
		case "off":
			if err := send(ipc.Command{Name: ipc.CmdCameraOff}); err != nil {
				return err
			}
			fmt.Println("Camera stop requested")
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		return nil
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap between video-to-text and text-to-video modes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(ipc.Command{Name: ipc.CmdSwap}); err != nil {
			return err
		}
		fmt.Println("Mode swap requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cameraCmd)
	rootCmd.AddCommand(swapCmd)
}
