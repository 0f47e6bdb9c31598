package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"invoicesweep/internal/application/dto"
	"invoicesweep/internal/infrastructure/config"
	"invoicesweep/internal/infrastructure/di"
	"invoicesweep/internal/infrastructure/logging"
)

func main() {
	bootLogger := logging.New("info", "text")
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		bootLogger.Errorf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !cfg.AutoSweepEnabled {
		logger.Error("autosweeper config error code=CONFIG_AUTOSWEEP_DISABLED message=AUTOSWEEP_ENABLED must be true for autosweeper runtime")
		os.Exit(1)
	}
	if cfg.StorageMode != config.StorageModePostgreSQL {
		logger.Error("autosweeper config error code=CONFIG_STORAGE_MODE_UNSUPPORTED message=autosweeper requires STORAGE_MODE=postgresql")
		os.Exit(1)
	}

	container, buildErr := di.Build(cfg, logger)
	if buildErr != nil {
		logger.Errorf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer container.Close()
	defer func() {
		if container.Database == nil {
			return
		}
		if err := container.Database.Close(); err != nil {
			logger.Warnf("database close warning error=%v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("autosweeper persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Errorf(
			"autosweeper persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Infof("autosweeper persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	if _, appErr := container.BootstrapControllerUseCase.Execute(ctx, dto.BootstrapControllerCommand{
		ControllerAddress:   cfg.ControllerAddress,
		OwnerAddress:        cfg.ControllerOwnerAddress,
		TemplateFingerprint: cfg.ControllerTemplateFingerprint,
	}); appErr != nil {
		logger.Errorf(
			"autosweeper controller bootstrap failed code=%s message=%s metadata=%v",
			appErr.Code,
			appErr.Message,
			appErr.Details,
		)
		os.Exit(1)
	}

	if container.AutoSweepWorker == nil || !container.AutoSweepWorker.Enabled() {
		logger.Error("autosweeper startup failed code=AUTOSWEEP_WORKER_NOT_ENABLED message=auto-sweep worker is not enabled")
		os.Exit(1)
	}

	container.AutoSweepWorker.Start(ctx)
	logger.Info("autosweeper stopped")
}
