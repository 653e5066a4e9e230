package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/constitution"
	"github.com/yalochat/speckit-presenter/internal/markdown"
	"github.com/yalochat/speckit-presenter/internal/notes"
	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/server"
	"github.com/yalochat/speckit-presenter/internal/store"
	"github.com/yalochat/speckit-presenter/internal/workflow"
)

func main() {
	port := 3000
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			port = p
		}
	}

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var scenarios []scenario.Scenario
	if dir := os.Getenv("SCENARIOS_DIR"); dir != "" {
		scenarios, err = scenario.LoadDir(dir)
	} else {
		scenarios, err = scenario.LoadDefaults()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenarios: %v\n", err)
		os.Exit(1)
	}

	catalog, err := scenario.NewCatalog(scenarios)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build scenario catalog: %v\n", err)
		os.Exit(1)
	}

	noteSvc, err := notes.NewService(os.Getenv("NOTES_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load presenter notes: %v\n", err)
		os.Exit(1)
	}

	activity, err := store.NewActivityStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open activity store: %v\n", err)
		os.Exit(1)
	}
	defer activity.Close()

	generator := artifact.NewGenerator(markdown.NewRenderer(), log)
	checker := constitution.NewChecker(log)
	events := workflow.NewEventBus()

	eng := workflow.New(catalog, generator, checker, activity, events, log)
	srv := server.New(eng, catalog, checker, noteSvc, activity, events, log)

	log.Info("starting server", "port", port, "scenarios", len(scenarios))
	if err := srv.Start(":" + strconv.Itoa(port)); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
