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

	"github.com/sirupsen/logrus"
)

func main() {
	bootLogger := logging.New("info", "text")
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		bootLogger.Errorf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Infof(
		"runtime config storage_mode=%s lock_mode=%s balance_source=%s autosweep_enabled=%t nats_enabled=%t",
		cfg.StorageMode,
		cfg.LockMode,
		cfg.BalanceSource,
		cfg.AutoSweepEnabled,
		cfg.NATSURL != "",
	)

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

	if !initializeRuntime(ctx, cfg, container, logger) {
		os.Exit(1)
	}

	if container.DepositConsumer != nil {
		if err := container.DepositConsumer.Start(); err != nil {
			logger.Errorf("deposit consumer startup failed: %v", err)
			os.Exit(1)
		}
		defer container.DepositConsumer.Stop()
	}

	if container.AutoSweepWorker != nil && container.AutoSweepWorker.Enabled() {
		go container.AutoSweepWorker.Start(ctx)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- container.Server.Start()
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Errorf("server startup failed: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %v", err)
			os.Exit(1)
		}

		if err := <-serverErrCh; err != nil {
			logger.Errorf("server stopped with error: %v", err)
			os.Exit(1)
		}

		logger.Info("server stopped")
	}
}

// initializeRuntime prepares persistence and the controller record.
func initializeRuntime(ctx context.Context, cfg config.Config, container di.Container, logger logrus.FieldLogger) bool {
	if container.InitializePersistenceUseCase != nil {
		logger.Infof("persistence initialization starting database_target=%s", cfg.DatabaseTarget)
		persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
			ReadinessTimeout:       cfg.DBReadinessTimeout,
			ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
		})
		if persistenceErr != nil {
			logger.Errorf(
				"persistence initialization failed code=%s message=%s metadata=%v",
				persistenceErr.Code,
				persistenceErr.Message,
				persistenceErr.Details,
			)
			return false
		}
		logger.Infof("persistence initialization completed database_target=%s", cfg.DatabaseTarget)
	}

	controller, appErr := container.BootstrapControllerUseCase.Execute(ctx, dto.BootstrapControllerCommand{
		ControllerAddress:   cfg.ControllerAddress,
		OwnerAddress:        cfg.ControllerOwnerAddress,
		TemplateFingerprint: cfg.ControllerTemplateFingerprint,
	})
	if appErr != nil {
		logger.Errorf(
			"controller bootstrap failed code=%s message=%s metadata=%v",
			appErr.Code,
			appErr.Message,
			appErr.Details,
		)
		return false
	}
	logger.Infof(
		"controller bootstrap completed controller=%s owner=%s initialized=%t",
		controller.ControllerAddress,
		controller.OwnerAddress,
		controller.Initialized,
	)
	return true
}
