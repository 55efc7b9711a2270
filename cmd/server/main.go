// Command server starts the chat orchestration engine's HTTP listener: it
// reads provider credentials and an optional YAML config override, builds
// the executors and agent registry, and serves POST /api/chat.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/config"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/httpapi"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model/anthropic"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model/cerebras"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/orchestrator"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/registry"
)

func main() {
	configPath := flag.String("config", os.Getenv("CPIC_CONFIG"), "optional YAML config file overriding defaults")
	flag.Parse()

	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cerebrasKeys := config.EnvKeys(os.Getenv("CEREBRAS_API_KEYS"))
	if len(cerebrasKeys) == 0 {
		log.Fatal("CEREBRAS_API_KEYS environment variable is required")
	}
	credentials := map[string][]string{"cerebras": cerebrasKeys}

	reg := model.Registry{"cerebras": cerebras.New()}
	if anthropicKeys := config.EnvKeys(os.Getenv("ANTHROPIC_API_KEYS")); len(anthropicKeys) > 0 {
		credentials["anthropic"] = anthropicKeys
		reg["anthropic"] = anthropic.New()
	}

	parallel := executor.NewParallelExecutor(reg, logger)
	parallel.MinRetry = cfg.MinRetry
	integration := executor.NewIntegrationExecutor(reg, logger)
	integration.MinRetry = cfg.MinRetry
	steps := registry.New(parallel, integration, cfg.DefaultIntegratorModel)

	orch := &orchestrator.Orchestrator{
		Credentials:            credentials,
		ParallelExec:           parallel,
		IntegrationExec:        integration,
		Steps:                  steps,
		Logger:                 logger,
		MessageThreshold:       cfg.MessageThreshold,
		CharThreshold:          cfg.CharThreshold,
		DefaultSummarizerModel: cfg.DefaultSummarizerModel,
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.NewServeMux(orch),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting chat orchestration server", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
