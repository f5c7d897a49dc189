package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/bridge"
	"github.com/querypath/playground/config"
	"github.com/querypath/playground/engine"
	"github.com/querypath/playground/examples"
	"github.com/querypath/playground/lifecycle"
	"github.com/querypath/playground/listener"
	"github.com/querypath/playground/orchestrator"
	"github.com/querypath/playground/session"
)

func main() {
	var (
		configFile  = flag.String("config", "playground.yaml", "Path to config file")
		moduleFile  = flag.String("module", "", "Path to query module wasm (overrides config)")
		xmlFile     = flag.String("xml", "", "XML document file for one-shot mode")
		queryPath   = flag.String("path", "", "Dot path for one-shot mode")
		shared      = flag.String("share", "", "Shared query string to restore (xml=...&path=...)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *moduleFile != "" {
		cfg.ModulePath = *moduleFile
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg, *shared, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *xmlFile == "" || *queryPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: playground -xml <file> -path <dot.path> [-module file.wasm]")
		fmt.Fprintln(os.Stderr, "       playground -i  (interactive mode)")
		os.Exit(1)
	}

	if err := runOnce(cfg, *xmlFile, *queryPath, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(cfg *config.Config, xmlFile, path string, log *zap.Logger) error {
	ctx := context.Background()

	document, err := os.ReadFile(xmlFile)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	orch, teardown, err := wire(cfg, nil, log)
	if err != nil {
		return err
	}
	defer teardown(ctx)

	out := orch.Execute(ctx, string(document), path)
	switch out.Kind {
	case orchestrator.OutcomeCleared:
		fmt.Println("(empty input, nothing to evaluate)")
	case orchestrator.OutcomeFailure:
		msg := out.Message
		if out.Hint != "" {
			msg += "\n" + out.Hint
		}
		return fmt.Errorf("%s", msg)
	case orchestrator.OutcomeSuccess:
		r := out.Result
		fmt.Printf("value:  %s\n", r.Value)
		fmt.Printf("kind:   %s\n", r.Kind)
		fmt.Printf("exists: %v\n", r.Exists)
		if r.Index >= 0 {
			fmt.Printf("index:  %d\n", r.Index)
		}
		if out.ShareQuery != "" {
			fmt.Printf("share:  ?%s\n", out.ShareQuery)
		}
	}
	return nil
}

// wire assembles the full component graph. The returned teardown closes
// the session database, detaches every subscription, and releases the
// guest runtime.
func wire(cfg *config.Config, registry *listener.Registry, log *zap.Logger) (*orchestrator.Orchestrator, func(context.Context) error, error) {
	db, err := session.Open(cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open session db: %w", err)
	}
	store := session.NewStore(db)
	if err := store.Init(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init session db: %w", err)
	}

	loader := func(ctx context.Context) (playground.Surface, error) {
		return engine.LoadFile(ctx, cfg.ModulePath, &engine.Config{
			Logger:        log.Named("engine"),
			SettleTimeout: cfg.SettleTimeout,
		})
	}
	manager := lifecycle.NewManager(loader, log.Named("lifecycle"))

	orch := orchestrator.New(
		manager,
		bridge.New(manager, log.Named("bridge")),
		session.NewHistory(store, log.Named("history")),
		session.NewShare(examples.Default().Document, log.Named("share")),
		registry,
		log.Named("orchestrator"),
	)

	teardown := func(ctx context.Context) error {
		if registry != nil {
			registry.Cleanup()
		}
		err := manager.Teardown(ctx)
		if cerr := db.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return orch, teardown, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
