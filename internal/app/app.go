package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"broadphase/server/internal/hub"
	servernet "broadphase/server/internal/net"
	"broadphase/server/internal/world"
	"broadphase/server/logging"
	loggingSinks "broadphase/server/logging/sinks"
	"broadphase/server/scenario"
)

// Run wires the collision world, hub, and HTTP surface together and serves
// until ListenAndServe returns. Configuration comes from the environment so
// the binary stays flag-free.
func Run(ctx context.Context) error {
	logger := log.Default()

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	if path := strings.TrimSpace(os.Getenv("LOG_JSON_PATH")); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		defer file.Close()
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		logConfig.JSON.FilePath = path
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, logger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	scenarioPaths := scenario.DefaultPaths()
	if raw := strings.TrimSpace(os.Getenv("SCENARIO_PATH")); raw != "" {
		scenarioPaths = []string{raw}
	}
	layout, err := scenario.Load(scenarioPaths...)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	authored, err := layout.Boxes()
	if err != nil {
		return fmt.Errorf("failed to materialise scenario boxes: %w", err)
	}
	if name := layout.Name(); name != "" {
		logger.Printf("loaded scenario %q with %d boxes", name, len(authored))
	}

	worldCfg := worldConfigFromEnv(logger)
	w, err := world.New(worldCfg, world.Deps{
		Publisher: router,
		Boxes:     authored,
	})
	if err != nil {
		return fmt.Errorf("failed to build world: %w", err)
	}

	hubCfg := hub.Config{}
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			hubCfg.TickRate = value
		} else {
			logger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}

	h := hub.New(w, hubCfg, router)
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.RunLoop(loopCtx)

	handler := servernet.NewHTTPHandler(h, servernet.HTTPHandlerConfig{
		Logger: logger,
	})

	addr := ":8080"
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		addr = ":" + port
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	logger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func worldConfigFromEnv(logger *log.Logger) world.Config {
	cfg := world.Config{}
	if raw := strings.TrimSpace(os.Getenv("WORLD_SEED")); raw != "" {
		cfg.Seed = raw
	}
	if raw := os.Getenv("BOX_COUNT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.BoxCount = value
		} else {
			logger.Printf("invalid BOX_COUNT=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("STATIONARY_FRACTION"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.StationaryFraction = value
		} else {
			logger.Printf("invalid STATIONARY_FRACTION=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("PARTITION_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Partition.PartitionSize = value
		} else {
			logger.Printf("invalid PARTITION_SIZE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("PARTITION_DEPTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Partition.MaxDepth = value
		} else {
			logger.Printf("invalid PARTITION_DEPTH=%q: %v", raw, err)
		}
	}
	return cfg
}
