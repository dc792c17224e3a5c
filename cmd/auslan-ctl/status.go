package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/auslanlive/auslan-client/internal/ipc"
	"github.com/auslanlive/auslan-client/internal/sentence"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's current state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw status snapshot as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := ipc.ReadStatus()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no status available (is auslan-core running?)")
		}
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("Mode:          %s", status.Mode)
	if status.Phase != "idle" {
		fmt.Printf(" (%s)", status.Phase)
	}
	fmt.Println()

	fmt.Printf("Tracker:       %s\n", onOff(status.TrackerConnected, "connected", "disconnected"))
	fmt.Printf("Camera:        %s\n", onOff(status.CameraRunning, "on", "off"))
	if status.CameraRunning {
		fmt.Printf("Frames:        %d seen, %d with hands, %d buffered\n",
			status.TrackerStats.FramesSeen, status.TrackerStats.FramesWithHands, status.BufferedFrames)
	}
	if status.FrameStatus.MinFrames > 0 {
		ready := ""
		if status.FrameStatus.ReadyToPredict {
			ready = " (ready to predict)"
		}
		fmt.Printf("Backend:       %d/%d frames%s\n",
			status.FrameStatus.FramesCollected, status.FrameStatus.MinFrames, ready)
	}
	if status.ProcessingPaused {
		fmt.Println("Processing:    paused")
	}

	fmt.Println()
	if len(status.Words) == 0 {
		fmt.Println("Sentence:      (empty)")
	} else {
		fmt.Println("Sentence:")
		for _, w := range status.Words {
			fmt.Printf("  %s %2d. %-16s %.0f%% (%s)\n",
				w.Tier().Icon(), w.ID, w.Word, w.Confidence*100, w.Tier())
		}
	}
	if status.Translation != "" {
		gem := ""
		if status.GemFlag {
			gem = " *"
		}
		fmt.Printf("Translation:   %s%s\n", status.Translation, gem)
	}

	if status.Pending != nil {
		fmt.Println()
		fmt.Println("Uncertain sign - pick one with 'auslan-ctl select <word>' or 'auslan-ctl skip':")
		printAlternatives(status.Pending.Top5)
	}

	if status.LastTranslation != nil {
		fmt.Println()
		fmt.Printf("Last translate: %q -> %s", status.LastTranslation.Input, status.LastTranslation.GrammarText)
		if status.LastTranslation.VideoURL != "" {
			fmt.Printf("\n  Video: %s", status.LastTranslation.VideoURL)
		}
		if len(status.LastTranslation.MissingWords) > 0 {
			fmt.Printf("\n  Not in vocabulary: %v", status.LastTranslation.MissingWords)
		}
		fmt.Println()
	}

	if status.LastError != "" {
		fmt.Println()
		fmt.Printf("Last error:    %s\n", status.LastError)
	}

	fmt.Println()
	fmt.Printf("Updated:       %s\n", status.Timestamp.Format(time.RFC3339))
	return nil
}

func printAlternatives(alts []sentence.Alternative) {
	for i, alt := range alts {
		fmt.Printf("  %d. %-16s %.0f%%\n", i+1, alt.Label, alt.Confidence*100)
	}
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
