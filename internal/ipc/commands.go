package ipc

import (
	"os"
	"path/filepath"
	"strings"
)

// Command names accepted by the daemon. Some carry arguments: select takes a
// word, replace takes a word index and a word, translate and grammar take
// the rest of the line.
const (
	CmdCameraOn  = "camera_on"  // Connect the tracker and start streaming
	CmdCameraOff = "camera_off" // Stop the camera stream
	CmdSwap      = "swap"       // Swap translation direction
	CmdPredict   = "predict"    // Force a prediction from the buffered window
	CmdClear     = "clear"      // Clear the recognized sentence
	CmdSelect    = "select"     // Answer the open prompt with a word
	CmdSkip      = "skip"       // Dismiss the open prompt
	CmdReplace   = "replace"    // Replace a recognized word by index
	CmdTranslate = "translate"  // Translate English text to a sign video
	CmdGrammar   = "grammar"    // Toggle the always-show-grammar preference
	CmdQuit      = "quit"       // Shutdown daemon
)

// Command is one user command from the CLI to the daemon.
type Command struct {
	Name string
	Args []string
}

// cacheDir returns ~/.cache/auslanlive
func cacheDir() string {
	return filepath.Join(os.Getenv("HOME"), ".cache", "auslanlive")
}

// CommandPath returns the path of the command handoff file.
func CommandPath() string {
	return filepath.Join(cacheDir(), "cmd.txt")
}

// WriteCommand writes a command line to ~/.cache/auslanlive/cmd.txt
func WriteCommand(cmd Command) error {
	if err := os.MkdirAll(cacheDir(), 0755); err != nil {
		return err
	}

	line := cmd.Name
	if len(cmd.Args) > 0 {
		line += " " + strings.Join(cmd.Args, " ")
	}
	return os.WriteFile(CommandPath(), []byte(line), 0644)
}

// ReadCommand reads and clears ~/.cache/auslanlive/cmd.txt
// Returns a zero Command if no command is pending or the line is unknown.
func ReadCommand() (Command, error) {
	data, err := os.ReadFile(CommandPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Command{}, nil // No command pending
		}
		return Command{}, err
	}

	// Clear the file immediately to prevent re-execution
	if err := os.WriteFile(CommandPath(), []byte(""), 0644); err != nil {
		return Command{}, err
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Command{}, nil // Empty file
	}

	cmd := Command{Name: fields[0], Args: fields[1:]}
	switch cmd.Name {
	case CmdCameraOn, CmdCameraOff, CmdSwap, CmdPredict, CmdClear,
		CmdSelect, CmdSkip, CmdReplace, CmdTranslate, CmdGrammar, CmdQuit:
		return cmd, nil
	default:
		// Invalid command - ignore it
		return Command{}, nil
	}
}
