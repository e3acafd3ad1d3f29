// Command recap digests chat history: it loads stored records, condenses
// them down to a token budget through the configured generation endpoints,
// and runs an analysis task over the condensed transcript.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ChamsBouzaiene/recap/internal/engine"
	"github.com/ChamsBouzaiene/recap/internal/ingest"
	"github.com/ChamsBouzaiene/recap/internal/prompts"
	"github.com/ChamsBouzaiene/recap/internal/records"
	"github.com/ChamsBouzaiene/recap/internal/report"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	var err error
	if len(args) > 0 {
		switch args[0] {
		case "import":
			err = runImportCommand(ctx, args[1:])
		case "watch":
			err = runWatchCommand(ctx, args[1:])
		case "search":
			err = runSearchCommand(ctx, args[1:])
		case "reports":
			err = runReportsCommand(ctx, args[1:])
		case "digest":
			err = runDigestCommand(ctx, args[1:])
		default:
			err = runDigestCommand(ctx, args)
		}
	} else {
		err = runDigestCommand(ctx, args)
	}
	if err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func runDigestCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	chatFlag := fs.String("chat", "", "Chat to digest (required)")
	sinceFlag := fs.String("since", "24h", "Window start: a duration back from now (e.g. 24h) or a date (2006-01-02)")
	participantsFlag := fs.String("participants", "", "Comma-separated participant filter (default: everyone)")
	taskFlag := fs.String("task", "", "Analysis task to run over the condensed transcript")
	configFlag := fs.String("config", "", "Config directory (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chatFlag == "" {
		return fmt.Errorf("-chat is required")
	}

	from, err := parseSince(*sinceFlag)
	if err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx, *configFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	sender, err := buildSender(env.Cfg)
	if err != nil {
		return err
	}

	senders, err := env.Store.ResolveParticipants(ctx, *chatFlag, splitParticipants(*participantsFlag))
	if err != nil {
		return err
	}

	recs, err := env.Store.Since(ctx, *chatFlag, senders, from)
	if errors.Is(err, records.ErrNoRecords) {
		fmt.Println("No records in the requested window; nothing to digest.")
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Digesting %d records from chat %q", len(recs), *chatFlag)

	transcript := records.BuildTranscript(recs)

	task := *taskFlag
	if task == "" {
		task = prompts.DefaultTask
	}

	condenser, err := engine.NewCondenser(sender, engine.CondenserConfig{
		Budget:    env.Cfg.TokenBudget,
		Estimator: engine.NewCharCostEstimator(env.Cfg.CostDivisor),
		OnProgress: func(phase engine.Phase) {
			switch phase {
			case engine.PhaseCondensing:
				log.Println("🗜️  Condensing transcript to budget...")
			case engine.PhaseAnalyzing:
				log.Println("🔎 Running analysis...")
			}
		},
	})
	if err != nil {
		return err
	}

	analysis, err := condenser.CondenseToBudget(ctx, transcript.Lines, task)
	if engine.IsProgressStall(err) {
		return fmt.Errorf("condensation stopped making progress; try a larger token budget: %w", err)
	}
	if err != nil {
		return err
	}

	rep := &report.Report{
		Chat:         *chatFlag,
		Task:         task,
		Participants: senders,
		From:         transcript.From,
		To:           transcript.To,
		Analysis:     analysis,
	}
	if err := env.Reports.Save(rep); err != nil {
		log.Printf("⚠️  Failed to save report: %v", err)
	} else {
		log.Printf("Report saved: %s", rep.ID)
	}

	fmt.Println(analysis)
	return nil
}

func runImportCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configFlag := fs.String("config", "", "Config directory (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: recap import [flags] <export.jsonl>...")
	}

	env, err := prepareRuntimeEnv(ctx, *configFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	for _, path := range fs.Args() {
		count, err := env.Loader.LoadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Printf("📥 Imported %d records from %s", count, path)
	}
	return nil
}

func runWatchCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Drop directory to watch (default: watch_dir from config)")
	configFlag := fs.String("config", "", "Config directory (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx, *configFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	dir := *dirFlag
	if dir == "" {
		dir = env.Cfg.WatchDir
	}
	if dir == "" {
		return fmt.Errorf("no watch directory: pass -dir or set watch_dir in config")
	}

	watcher, err := ingest.NewWatcher(dir, env.Loader)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	log.Printf("👀 Watching %s for chat exports (*.jsonl), Ctrl-C to stop", dir)

	<-ctx.Done()
	return watcher.Stop()
}

func runSearchCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limitFlag := fs.Int("limit", 10, "Maximum number of hits")
	configFlag := fs.String("config", "", "Config directory (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: recap search [flags] <query>")
	}

	env, err := prepareRuntimeEnv(ctx, *configFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	hits, err := env.Index.Search(ctx, strings.Join(fs.Args(), " "), *limitFlag)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, hit := range hits {
		fmt.Printf("[%s] %s: %s\n", hit.Chat, hit.Sender, hit.Content)
	}
	return nil
}

func runReportsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	chatFlag := fs.String("chat", "", "Chat to list reports for (required)")
	showFlag := fs.String("show", "", "Print the full report with this ID")
	configFlag := fs.String("config", "", "Config directory (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chatFlag == "" {
		return fmt.Errorf("-chat is required")
	}

	env, err := prepareRuntimeEnv(ctx, *configFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	if *showFlag != "" {
		rep, err := env.Reports.Load(*showFlag, *chatFlag)
		if err != nil {
			return err
		}
		fmt.Printf("Report %s (%s)\nTask: %s\nWindow: %s to %s\n\n%s\n",
			rep.ID, rep.CreatedAt.Format(time.RFC3339), rep.Task,
			rep.From.Format(time.RFC3339), rep.To.Format(time.RFC3339), rep.Analysis)
		return nil
	}

	metas, err := env.Reports.List(*chatFlag)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No reports yet.")
		return nil
	}
	for _, meta := range metas {
		fmt.Printf("%s  %s  %s\n", meta.ID, meta.CreatedAt.Format("2006-01-02 15:04"), meta.Task)
	}
	return nil
}

// parseSince accepts either a duration back from now ("24h", "90m") or an
// absolute date ("2006-01-02").
func parseSince(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid -since value %q: want a duration (24h) or a date (2006-01-02)", s)
}

func splitParticipants(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
