package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/internal/adapter/capture"
	"github.com/screenpilot/screenpilot/internal/adapter/extract"
	"github.com/screenpilot/screenpilot/internal/adapter/llm"
	"github.com/screenpilot/screenpilot/internal/agent"
	"github.com/screenpilot/screenpilot/internal/executor"
	"github.com/screenpilot/screenpilot/internal/input"
	"github.com/screenpilot/screenpilot/policy"
	"github.com/screenpilot/screenpilot/store"
)

func main() {
	once := flag.Bool("once", false, "run a single analysis cycle and exit")
	interval := flag.Duration("interval", 0, "run a cycle every interval (e.g. 30s); 0 means manual triggers only")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting screenpilot agent...")
	log.Printf("Model: %s", cfg.Model)
	log.Printf("Store: %s (%s)", cfg.StorePath, cfg.StoreBackend)
	log.Printf("Auto-execute actions: %v", cfg.AutoExecuteActions)

	// Initialize store
	st, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize pipeline adapters
	capturer := capture.NewCommandCapturer(cfg.ScreenshotsDir)
	extractor := extract.NewTesseractExtractor(cfg.TesseractLang, cfg.OCRConfidenceThreshold)
	client := llm.NewOpenAIClient(cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.Model,
		cfg.LLMTimeout, cfg.LLMMaxRetries, cfg.ExecuteMaxActions)

	confirmer := &executor.StdinConfirmer{In: os.Stdin, Out: os.Stderr}
	exec := executor.New(input.NewCommandSynthesizer(), policyEngine, confirmer,
		cfg.AutoExecuteActions, cfg.ActionDelay)

	orch := agent.New(capturer, extractor, client, exec, st, cfg.HistoryContext)

	if *once {
		runCtx, cancel := signalContext()
		defer cancel()
		if _, err := orch.RunCycle(runCtx); err != nil {
			log.Fatalf("Cycle failed: %v", err)
		}
		return
	}

	loop := agent.NewLoop(orch, *interval)

	runCtx, cancel := signalContext()
	defer cancel()

	// Enter on stdin triggers an extra cycle. Triggers during a running
	// cycle coalesce into at most one pending run.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			loop.Trigger()
		}
	}()

	if *interval > 0 {
		log.Printf("Analyzing every %s; press Enter for an extra cycle", *interval)
	} else {
		log.Printf("Press Enter to run a cycle")
	}

	if err := loop.Run(runCtx); err != nil && !isCancel(err) {
		log.Fatalf("Agent stopped: %v", err)
	}
	log.Println("Agent stopped")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled)
}
