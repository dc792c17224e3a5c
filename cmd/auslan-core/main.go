package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/fsnotify/fsnotify"

	"github.com/auslanlive/auslan-client/internal/api"
	"github.com/auslanlive/auslan-client/internal/config"
	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/framebuffer"
	"github.com/auslanlive/auslan-client/internal/ipc"
	"github.com/auslanlive/auslan-client/internal/modeswap"
	"github.com/auslanlive/auslan-client/internal/pidfile"
	"github.com/auslanlive/auslan-client/internal/poller"
	"github.com/auslanlive/auslan-client/internal/prefs"
	"github.com/auslanlive/auslan-client/internal/sentence"
	"github.com/auslanlive/auslan-client/internal/textclean"
	"github.com/auslanlive/auslan-client/internal/tracker"
	"github.com/auslanlive/auslan-client/internal/translate"
	"github.com/auslanlive/auslan-client/internal/transmitter"
)

const logPrefix = "[auslan-core]"

var (
	// Version is set at build time via -ldflags "-X main.Version=..."
	Version = "dev"

	outLog *log.Logger
	errLog *log.Logger
)

// daemon holds the wired-up client components for the command handlers.
type daemon struct {
	cfg     *config.ClientConfig
	tracker *tracker.Client
	buffer  *framebuffer.Buffer
	tx      *transmitter.Transmitter
	store   *sentence.Store
	correct *sentence.Corrector
	poll    *poller.Poller
	modes   *modeswap.Controller
	trans   *translate.Service
	prefs   *prefs.Store

	lastTranslation *translate.Result
	lastError       string

	shutdown context.CancelFunc
}

func main() {
	// --export-diag subcommand: read log, write bundle, exit.
	if len(os.Args) > 1 && os.Args[1] == "--export-diag" {
		logPath := os.Getenv("AUSLAN_LOG_PATH")
		if logPath == "" {
			logPath = "/tmp/auslan-debug.log"
		}
		diaglog.Version = Version
		path, n, err := diaglog.Export(logPath, ".")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stderr, "hint: run with AUSLAN_DEBUG=true to enable logging")
				os.Exit(1)
			}
			os.Exit(2)
		}
		fmt.Printf("Wrote: %s (%d lines)\n", path, n)
		os.Exit(0)
	}

	// Recover from any panics and log them
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC in auslan-core: %v\n", r)
			if errLog != nil {
				errLog.Printf("PANIC: %v", r)
			}
			os.Exit(1)
		}
	}()

	// Initialize logging
	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	outLog.Println("===========================================")
	outLog.Println("Starting AuslanLive Core v" + Version + "...")
	outLog.Printf("PID: %d", os.Getpid())
	outLog.Printf("Timestamp: %s", time.Now().Format(time.RFC3339))
	outLog.Println("===========================================")

	// Check for duplicate instances
	pidFilePath := pidfile.GetPIDFilePath("auslan-core")
	pf, err := pidfile.New(pidFilePath)
	if err != nil {
		errLog.Printf("Failed to create PID file: %v", err)
		errLog.Println("Another instance of auslan-core may already be running.")
		errLog.Printf("If you're sure no other instance is running, remove: %s", pidFilePath)
		os.Exit(1)
	}
	defer func() {
		outLog.Println("Cleaning up before exit...")
		if err := pf.Remove(); err != nil {
			errLog.Printf("Warning: failed to remove PID file: %v", err)
		}
	}()
	outLog.Printf("PID file created: %s (PID %d)", pidFilePath, os.Getpid())

	// Load client configuration
	outLog.Println("[STARTUP] Loading client configuration...")
	cfg, err := config.LoadClientConfig()
	if err != nil {
		errLog.Printf("Failed to load client config: %v", err)
		os.Exit(1)
	}
	outLog.Printf("[STARTUP] Loaded config: backend=%s tracker=%s poll=%dms upload=%dms",
		cfg.BackendURL, cfg.TrackerURL, cfg.PollIntervalMs, cfg.UploadIntervalMs)

	// Init diagnostic logging
	logPath := os.Getenv("AUSLAN_LOG_PATH")
	if logPath == "" {
		logPath = "/tmp/auslan-debug.log"
	}
	diagLogger, diagErr := diaglog.New(logPath)
	if diagErr != nil {
		errLog.Printf("[STARTUP] WARNING: could not open diagnostic log at %s: %v (continuing)", logPath, diagErr)
		diagLogger = diaglog.NewNoOp()
	}
	defer func() { _ = diagLogger.Close() }()
	diaglog.Version = Version

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Preferences, watched for edits from other tools
	prefStore, err := prefs.Open(prefs.DefaultPath())
	if err != nil {
		errLog.Printf("Failed to open preferences: %v", err)
		os.Exit(1)
	}
	go prefStore.Watch(rootCtx)
	outLog.Printf("[STARTUP] Preferences loaded (always_show_grammar=%v)", prefStore.Get(prefs.KeyAlwaysShowGrammar))

	// Backend API client
	apiClient := api.NewClient(api.Config{
		BaseURL:        cfg.BackendURL,
		Token:          cfg.APIToken,
		TimeoutSeconds: cfg.RequestTimeoutSeconds,
	})
	apiClient.SetLogger(diagLogger)

	// Sentence store and correction path
	store := sentence.NewStore()
	corrector := sentence.NewCorrector(store, apiClient)
	corrector.SetLogger(diagLogger)

	// Frame buffer and transmitter
	buffer := framebuffer.New(cfg.BufferCapacity)
	tx := transmitter.New(buffer, apiClient)
	tx.SetInterval(time.Duration(cfg.UploadIntervalMs) * time.Millisecond)
	tx.SetThresholds(cfg.MinUploadFrames, cfg.MinForceFrames)
	tx.SetLogger(diagLogger)

	// Landmark tracker sidecar; connection is deferred until camera_on
	trackerClient := tracker.NewClient(cfg.TrackerURL)
	trackerClient.SetLogger(diagLogger)
	trackerClient.OnFrame(tx.HandleFrame)
	trackerClient.OnDisconnected(func() {
		errLog.Println("[EVENT] Tracker disconnected - camera is off until the next camera_on")
		buffer.StopTransmission()
	})
	defer trackerClient.Close()

	// Recognition poller
	poll := poller.New(apiClient, store)
	poll.SetInterval(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
	poll.SetLogger(diagLogger)
	poll.OnPromptOpened(func() {
		// Transmission holds while the user answers the prompt
		outLog.Println("[EVENT] Disambiguation prompt opened - pausing transmission")
		tx.Pause()
	})
	poll.SetActive(true)

	// Text-to-video pipeline. A missing bucket client only disables video
	// resolution; grammar conversion still works.
	var resolver translate.VideoResolver
	if cfg.VideoBucket != "" {
		gcsClient, err := storage.NewClient(rootCtx)
		if err != nil {
			errLog.Printf("[STARTUP] WARNING: video storage unavailable: %v (grammar-only mode)", err)
		} else {
			defer gcsClient.Close()
			resolver = translate.NewGCSResolver(gcsClient, cfg.VideoBucket)
			outLog.Printf("[STARTUP] Video clips served from bucket %s", cfg.VideoBucket)
		}
	} else {
		outLog.Println("[STARTUP] No video bucket configured (grammar-only mode)")
	}

	var wordSet *textclean.WordSet
	if cfg.WordListPath != "" {
		wordSet, err = textclean.LoadWordSet(cfg.WordListPath)
		if err != nil {
			errLog.Printf("[STARTUP] WARNING: could not load word list: %v (vocabulary check disabled)", err)
			wordSet = nil
		} else {
			outLog.Printf("[STARTUP] Word list loaded (%d words)", wordSet.Len())
		}
	}

	transService := translate.NewService(apiClient, resolver, wordSet)
	transService.SetLogger(diagLogger)

	modes := modeswap.New()
	modes.SetLogger(diagLogger)

	d := &daemon{
		cfg:      cfg,
		tracker:  trackerClient,
		buffer:   buffer,
		tx:       tx,
		store:    store,
		correct:  corrector,
		poll:     poll,
		modes:    modes,
		trans:    transService,
		prefs:    prefStore,
		shutdown: cancel,
	}

	// Mode controller: leaving video-to-text tears down the camera and the
	// recognition poll, entering it brings the poll back. Either direction
	// wipes the outgoing mode's transient state.
	modes.OnMidpoint(d.swapMidpoint)
	modes.OnSettled(func(mode modeswap.Mode) {
		outLog.Printf("[EVENT] Mode swap settled: now %s", mode)
	})

	go tx.Run(rootCtx)
	go poll.Run(rootCtx)

	// Write initial status
	outLog.Println("[STARTUP] Writing initial status...")
	if err := d.writeStatus(); err != nil {
		errLog.Printf("Failed to write initial status: %v", err)
	}

	// Start command file watcher
	outLog.Println("[STARTUP] Starting command file watcher...")
	go d.watchCommands(rootCtx)

	// Status heartbeat
	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	outLog.Println("[STARTUP] Signal handlers registered (SIGINT, SIGTERM)")

	outLog.Println("===========================================")
	outLog.Println("[RUNNING] AuslanLive Core is running")

	for {
		select {
		case <-statusTicker.C:
			if err := d.writeStatus(); err != nil {
				errLog.Printf("Failed to write status: %v", err)
			}

		case <-sigChan:
			outLog.Println("===========================================")
			outLog.Printf("[SHUTDOWN] Received shutdown signal at %s", time.Now().Format(time.RFC3339))
			d.stopCamera()
			cancel()
			outLog.Println("[SHUTDOWN] Shutting down gracefully")
			outLog.Println("===========================================")
			return

		case <-rootCtx.Done():
			outLog.Println("[SHUTDOWN] Quit command received - shutting down")
			d.stopCamera()
			return
		}
	}
}

// swapMidpoint is the teardown half of a mode swap. It runs with commands
// locked out (the controller reports Busy until the swap settles), so the
// daemon fields are safe to reset here. The sentence, the open prompt, the
// prompt-paused transmitter, cached poll values, and the previous
// translation do not carry across modes; preferences do.
func (d *daemon) swapMidpoint(from, to modeswap.Mode) {
	if from == modeswap.ModeVideoToText {
		if d.tracker.IsRunning() {
			if err := d.tracker.Stop(); err != nil {
				errLog.Printf("Failed to stop camera during swap: %v", err)
			}
		}
		d.buffer.StopTransmission()
		d.poll.SetActive(false)
	} else {
		d.poll.SetActive(true)
	}

	d.store.ResetTransient()
	d.poll.ResetCached()
	d.tx.Resume()
	d.lastTranslation = nil
}

// startCamera connects the tracker if needed and starts the stream.
func (d *daemon) startCamera() error {
	if !d.tracker.IsConnected() {
		if err := d.tracker.Connect(); err != nil {
			return err
		}
	}
	if d.tracker.IsRunning() {
		return nil
	}
	if err := d.tracker.Start(); err != nil {
		return err
	}
	d.buffer.StartTransmission()
	return nil
}

// stopCamera stops the stream and disables frame ingestion.
func (d *daemon) stopCamera() {
	if d.tracker.IsRunning() {
		if err := d.tracker.Stop(); err != nil {
			errLog.Printf("Failed to stop camera: %v", err)
		}
	}
	d.buffer.StopTransmission()
}

// writeStatus updates the status.json file
func (d *daemon) writeStatus() error {
	words := d.store.Words()

	status := ipc.StatusSnapshot{
		Mode:             d.modes.Mode(),
		Phase:            d.modes.Phase(),
		TrackerConnected: d.tracker.IsConnected(),
		CameraRunning:    d.tracker.IsRunning(),
		TrackerStats:     d.tracker.Stats(),
		Transmitting:     d.buffer.State() == framebuffer.Ingesting,
		BufferedFrames:   d.buffer.Len(),
		Words:            words,
		SentenceText:     d.store.Text(),
		Pending:          d.store.Pending(),
		Translation:      d.poll.Translation(),
		GemFlag:          d.poll.GemFlag(),
		ProcessingPaused: d.poll.ProcessingPaused(),
		FrameStatus:      d.poll.FrameStatus(),
		LastTranslation:  d.lastTranslation,
		AlwaysGrammar:    d.prefs.Get(prefs.KeyAlwaysShowGrammar),
		PollSeq:          d.poll.Seq(),
		PollErrors:       d.poll.Errors(),
		LastError:        d.lastError,
		Timestamp:        time.Now(),
	}

	return ipc.WriteStatus(&status)
}

// watchCommands monitors cmd.txt for CLI commands
func (d *daemon) watchCommands(ctx context.Context) {
	cmdPath := ipc.CommandPath()
	cmdDir := filepath.Dir(cmdPath)

	if err := os.MkdirAll(cmdDir, 0755); err != nil {
		errLog.Printf("Failed to create command directory: %v", err)
		return
	}

	// Try to use fsnotify for efficient file watching
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errLog.Printf("fsnotify not available, falling back to polling: %v", err)
		d.watchCommandsWithPolling(ctx, cmdPath)
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			errLog.Printf("Failed to close watcher: %v", err)
		}
	}()

	if err := watcher.Add(cmdDir); err != nil {
		errLog.Printf("Failed to watch command directory, falling back to polling: %v", err)
		d.watchCommandsWithPolling(ctx, cmdPath)
		return
	}

	outLog.Println("Command watcher started (using fsnotify)")

	// Add fallback polling ticker in case fsnotify misses events
	pollTicker := time.NewTicker(1 * time.Second)
	defer pollTicker.Stop()

	lastCheckTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				outLog.Println("fsnotify watcher closed, switching to polling")
				d.watchCommandsWithPolling(ctx, cmdPath)
				return
			}

			if event.Name == cmdPath && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				// Small delay to ensure write is complete
				time.Sleep(50 * time.Millisecond)

				cmd, err := ipc.ReadCommand()
				if err != nil || cmd.Name == "" {
					continue
				}

				d.handleCommand(ctx, cmd)
				lastCheckTime = time.Now()
			}

		case <-pollTicker.C:
			// Fallback polling: check for commands if file was modified since last check
			if fileInfo, err := os.Stat(cmdPath); err == nil {
				if fileInfo.ModTime().After(lastCheckTime) {
					time.Sleep(50 * time.Millisecond) // Ensure write is complete

					cmd, err := ipc.ReadCommand()
					if err == nil && cmd.Name != "" {
						d.handleCommand(ctx, cmd)
						lastCheckTime = time.Now()
					}
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				outLog.Println("fsnotify error channel closed, switching to polling")
				d.watchCommandsWithPolling(ctx, cmdPath)
				return
			}
			errLog.Printf("File watcher error: %v", err)
		}
	}
}

// watchCommandsWithPolling is a pure polling-based fallback for command monitoring
func (d *daemon) watchCommandsWithPolling(ctx context.Context, cmdPath string) {
	outLog.Println("Command watcher started (using polling fallback, 1s interval)")

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastCheckTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Check if file was modified since last check
		fileInfo, err := os.Stat(cmdPath)
		if err != nil {
			continue // File doesn't exist yet, keep polling
		}

		if fileInfo.ModTime().After(lastCheckTime) {
			time.Sleep(50 * time.Millisecond) // Ensure write is complete

			cmd, err := ipc.ReadCommand()
			if err == nil && cmd.Name != "" {
				d.handleCommand(ctx, cmd)
			}
			lastCheckTime = time.Now()
		}
	}
}

// handleCommand processes CLI commands
func (d *daemon) handleCommand(ctx context.Context, cmd ipc.Command) {
	outLog.Printf("Received command: %s %s", cmd.Name, strings.Join(cmd.Args, " "))
	d.lastError = ""

	// Quit is the only command accepted mid-swap
	if d.modes.Busy() && cmd.Name != ipc.CmdQuit {
		d.lastError = "busy: mode swap in progress"
		errLog.Printf("Command %s rejected: mode swap in progress", cmd.Name)
		return
	}

	fail := func(err error) {
		d.lastError = err.Error()
		errLog.Printf("Command %s failed: %v", cmd.Name, err)
	}

	switch cmd.Name {
	case ipc.CmdCameraOn:
		if d.modes.Mode() != modeswap.ModeVideoToText {
			d.lastError = "camera is only available in video-to-text mode"
			return
		}
		if err := d.startCamera(); err != nil {
			fail(err)
			return
		}
		outLog.Println("Camera started")

	case ipc.CmdCameraOff:
		d.stopCamera()
		outLog.Println("Camera stopped")

	case ipc.CmdSwap:
		if !d.modes.Swap() {
			d.lastError = "mode swap already in progress"
		}

	case ipc.CmdPredict:
		if err := d.tx.Force(ctx); err != nil {
			fail(err)
			return
		}
		outLog.Println("Forced prediction requested")

	case ipc.CmdClear:
		if err := d.correct.Clear(ctx); err != nil {
			fail(err)
			return
		}
		outLog.Println("Sentence cleared")

	case ipc.CmdSelect:
		if len(cmd.Args) != 1 {
			d.lastError = "usage: select <word>"
			return
		}
		if err := d.correct.SelectWord(ctx, cmd.Args[0]); err != nil {
			fail(err)
			return
		}
		d.tx.Resume()
		outLog.Printf("Prompt resolved with %q", cmd.Args[0])

	case ipc.CmdSkip:
		if err := d.correct.SkipPrediction(ctx); err != nil {
			fail(err)
			return
		}
		d.tx.Resume()
		outLog.Println("Prompt skipped")

	case ipc.CmdReplace:
		if len(cmd.Args) != 2 {
			d.lastError = "usage: replace <word-id> <word>"
			return
		}
		wordID, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			d.lastError = fmt.Sprintf("invalid word id %q", cmd.Args[0])
			return
		}
		if err := d.correct.ReplaceWord(ctx, wordID, cmd.Args[1]); err != nil {
			fail(err)
			return
		}
		outLog.Printf("Word %d replaced with %q", wordID, cmd.Args[1])

	case ipc.CmdTranslate:
		if d.modes.Mode() != modeswap.ModeTextToVideo {
			d.lastError = "translate is only available in text-to-video mode"
			return
		}
		if len(cmd.Args) == 0 {
			d.lastError = "usage: translate <text>"
			return
		}
		res, err := d.trans.Translate(ctx, strings.Join(cmd.Args, " "))
		if res != nil {
			d.lastTranslation = res
		}
		if err != nil {
			fail(err)
			return
		}
		outLog.Printf("Translated to %q (video: %s)", res.GrammarText, res.VideoName)

	case ipc.CmdGrammar:
		if len(cmd.Args) != 1 || (cmd.Args[0] != "on" && cmd.Args[0] != "off") {
			d.lastError = "usage: grammar on|off"
			return
		}
		if err := d.prefs.Set(prefs.KeyAlwaysShowGrammar, cmd.Args[0] == "on"); err != nil {
			fail(err)
			return
		}
		outLog.Printf("Grammar display preference set to %s", cmd.Args[0])

	case ipc.CmdQuit:
		outLog.Println("Quit command received")
		d.shutdown()
		return

	default:
		errLog.Printf("Unknown command: %s", cmd.Name)
		return
	}

	// Reflect the command's effect immediately instead of waiting a tick
	if err := d.writeStatus(); err != nil {
		errLog.Printf("Failed to write status after command: %v", err)
	}
}

// initLogging sets up log files with rotation support
func initLogging() error {
	logDir := "/tmp"

	// Rotate logs if they exceed 10MB
	outLogPath := filepath.Join(logDir, "auslan-core.out.log")
	errLogPath := filepath.Join(logDir, "auslan-core.err.log")

	if err := rotateLogIfNeeded(outLogPath, 10*1024*1024); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate out log: %v\n", err)
	}

	if err := rotateLogIfNeeded(errLogPath, 10*1024*1024); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate err log: %v\n", err)
	}

	outFile, err := os.OpenFile(outLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	errFile, err := os.OpenFile(errLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	outLog = log.New(outFile, logPrefix+" ", log.LstdFlags)
	errLog = log.New(errFile, logPrefix+" ERROR: ", log.LstdFlags)

	return nil
}

// rotateLogIfNeeded rotates a log file if it exceeds maxSize bytes
func rotateLogIfNeeded(logPath string, maxSize int64) error {
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return nil // Log doesn't exist yet
	}
	if err != nil {
		return err
	}

	if info.Size() < maxSize {
		return nil // Log is under size limit
	}

	// Rotate: rename current log to .old, removing previous .old
	oldPath := logPath + ".old"
	if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old log: %w", err)
	}

	if err := os.Rename(logPath, oldPath); err != nil {
		return err
	}

	return nil
}
