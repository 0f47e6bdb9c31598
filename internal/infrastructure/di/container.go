package di

import (
	"database/sql"
	"fmt"

	"invoicesweep/internal/adapters/inbound/http/auth"
	"invoicesweep/internal/adapters/inbound/http/controllers"
	httpRouter "invoicesweep/internal/adapters/inbound/http/router"
	inboundnats "invoicesweep/internal/adapters/inbound/nats"
	chainobserverevm "invoicesweep/internal/adapters/outbound/chainobserver/evm"
	"invoicesweep/internal/adapters/outbound/derivation/create2"
	"invoicesweep/internal/adapters/outbound/docs"
	eventsnats "invoicesweep/internal/adapters/outbound/events/nats"
	"invoicesweep/internal/adapters/outbound/events/noop"
	ledgermemory "invoicesweep/internal/adapters/outbound/ledger/memory"
	locallock "invoicesweep/internal/adapters/outbound/lock/local"
	redislock "invoicesweep/internal/adapters/outbound/lock/redis"
	persistencememory "invoicesweep/internal/adapters/outbound/persistence/memory"
	postgresqlbootstrap "invoicesweep/internal/adapters/outbound/persistence/postgresql/bootstrap"
	postgresqlcontrollerstate "invoicesweep/internal/adapters/outbound/persistence/postgresql/controllerstate"
	postgresqlledger "invoicesweep/internal/adapters/outbound/persistence/postgresql/ledger"
	postgresqlshared "invoicesweep/internal/adapters/outbound/persistence/postgresql/shared"
	postgresqlsubaccount "invoicesweep/internal/adapters/outbound/persistence/postgresql/subaccount"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/application/use_cases"
	"invoicesweep/internal/domain/policies"
	"invoicesweep/internal/infrastructure/autosweep"
	"invoicesweep/internal/infrastructure/config"
	"invoicesweep/internal/infrastructure/httpserver"
	"invoicesweep/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	Database                     *sql.DB
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	BootstrapControllerUseCase   portsin.BootstrapControllerUseCase
	AutoSweepWorker              *autosweep.Worker
	DepositConsumer              *inboundnats.DepositConsumer

	closers []func()
}

// Close releases external connections in reverse order of creation.
func (c Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

type storage struct {
	database     *sql.DB
	repository   portsout.ControllerStateRepository
	registry     portsout.SubAccountRegistry
	ledger       portsout.AssetLedger
	batchRecords portsout.SweepBatchReadModel
	persistence  portsout.PersistenceBootstrapGateway
}

func Build(cfg config.Config, logger logrus.FieldLogger) (Container, error) {
	container := Container{}

	store := buildStorage(cfg, logger)
	container.Database = store.database
	if store.persistence != nil {
		container.InitializePersistenceUseCase = use_cases.NewInitializePersistenceUseCase(store.persistence)
	}

	batchLock, closeLock, err := buildBatchLock(cfg, logger)
	if err != nil {
		container.Close()
		return Container{}, err
	}
	if closeLock != nil {
		container.closers = append(container.closers, closeLock)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name("invoicesweep"))
		if err != nil {
			container.Close()
			return Container{}, fmt.Errorf("nats connect failed: %w", err)
		}
		container.closers = append(container.closers, natsConn.Close)
		logger.Infof("nats connected url=%s", natsConn.ConnectedUrl())
	}

	var publisher portsout.SweepEventPublisher = noop.Publisher{}
	if natsConn != nil {
		publisher = eventsnats.NewPublisher(natsConn, cfg.NATSSweepSubject, logger)
	}

	balanceReader, closeReader, err := buildBalanceReader(cfg, store.ledger)
	if err != nil {
		container.Close()
		return Container{}, err
	}
	if closeReader != nil {
		container.closers = append(container.closers, closeReader)
	}

	sweepMetrics := metrics.NewSweepMetrics()
	deriver := create2.NewDeriver()
	clock := use_cases.NewSystemClock()

	healthUseCase := use_cases.NewGetHealthUseCase()
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath))
	container.BootstrapControllerUseCase = use_cases.NewBootstrapControllerUseCase(store.repository, batchLock, clock)
	getControllerUseCase := use_cases.NewGetControllerUseCase(store.repository)
	initializeControllerUseCase := use_cases.NewInitializeControllerUseCase(store.repository, batchLock, clock)
	listReceiversUseCase := use_cases.NewListReceiversUseCase(store.repository)
	addReceiverUseCase := use_cases.NewAddReceiverUseCase(store.repository, batchLock)
	removeReceiverUseCase := use_cases.NewRemoveReceiverUseCase(store.repository, batchLock)
	computeAddressUseCase := use_cases.NewComputeAddressUseCase(store.repository, deriver)
	registerSubAccountsUseCase := use_cases.NewRegisterSubAccountsUseCase(store.repository, deriver, store.registry, clock)
	listSubAccountsUseCase := use_cases.NewListSubAccountsUseCase(store.registry)
	sweepSubAccountUseCase := use_cases.NewSweepSubAccountUseCase(store.repository, deriver, store.ledger, batchLock)
	getBalanceUseCase := use_cases.NewGetBalanceUseCase(store.repository, deriver, balanceReader)
	recordDepositUseCase := use_cases.NewRecordDepositUseCase(store.repository, deriver, store.ledger, sweepMetrics)
	getSweepBatchUseCase := use_cases.NewGetSweepBatchUseCase(store.batchRecords)
	withdrawUseCase := use_cases.NewWithdrawUseCase(use_cases.WithdrawDependencies{
		Repository: store.repository,
		Deriver:    deriver,
		Ledger:     store.ledger,
		Lock:       batchLock,
		Publisher:  publisher,
		Metrics:    sweepMetrics,
		Budget:     policies.NewBatchBudget(cfg.MaxBatchEntries),
		Clock:      clock,
		Logger:     logger,
	})
	autoSweepUseCase := use_cases.NewAutoSweepUseCase(
		store.repository,
		store.registry,
		withdrawUseCase,
		use_cases.AutoSweepTarget{
			Receiver:   cfg.AutoSweepReceiver,
			AssetTypes: cfg.AutoSweepAssetTypes,
		},
		sweepMetrics,
	)

	container.AutoSweepWorker = autosweep.NewWorker(
		cfg.AutoSweepEnabled,
		cfg.AutoSweepPollInterval,
		cfg.AutoSweepBatchSize,
		cfg.AutoSweepWorkerID,
		cfg.AutoSweepLeaseDuration,
		autoSweepUseCase,
		logger,
	)
	if natsConn != nil {
		container.DepositConsumer = inboundnats.NewDepositConsumer(natsConn, cfg.NATSDepositSubject, recordDepositUseCase, logger)
	}

	var devtestDepositsController *controllers.DevtestDepositsController
	if cfg.DevtestDepositsEnabled {
		devtestDepositsController = controllers.NewDevtestDepositsController(recordDepositUseCase, logger)
	}

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:          controllers.NewHealthController(healthUseCase, logger),
		SwaggerController:         controllers.NewSwaggerController(openAPIUseCase, logger),
		ControllerStateController: controllers.NewControllerStateController(getControllerUseCase, initializeControllerUseCase, logger),
		ReceiversController: controllers.NewReceiversController(
			listReceiversUseCase,
			addReceiverUseCase,
			removeReceiverUseCase,
			logger,
		),
		SubAccountsController: controllers.NewSubAccountsController(
			computeAddressUseCase,
			registerSubAccountsUseCase,
			listSubAccountsUseCase,
			sweepSubAccountUseCase,
			logger,
		),
		BalancesController:        controllers.NewBalancesController(getBalanceUseCase, logger),
		WithdrawalsController:     controllers.NewWithdrawalsController(withdrawUseCase, getSweepBatchUseCase, logger),
		DevtestDepositsController: devtestDepositsController,
		Authenticator:             auth.NewAuthenticator(cfg.AuthJWTSecret, common.HexToAddress(cfg.ControllerAddress), logger),
		MetricsHandler:            sweepMetrics.Handler(),
	})

	container.Server = httpserver.New(cfg.Address(), router, logger)
	return container, nil
}

func buildStorage(cfg config.Config, logger logrus.FieldLogger) storage {
	if cfg.StorageMode != config.StorageModePostgreSQL {
		ledger := ledgermemory.NewLedger()
		return storage{
			repository:   persistencememory.NewControllerStateRepository(),
			registry:     persistencememory.NewSubAccountRegistry(),
			ledger:       ledger,
			batchRecords: ledger,
		}
	}

	databasePool := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, logger)
	ledger := postgresqlledger.NewLedger(databasePool, logger)
	return storage{
		database:     databasePool,
		repository:   postgresqlcontrollerstate.NewRepository(databasePool, logger),
		registry:     postgresqlsubaccount.NewRegistry(databasePool, logger),
		ledger:       ledger,
		batchRecords: ledger,
		persistence: postgresqlbootstrap.NewGateway(
			cfg.DatabaseURL,
			cfg.DatabaseTarget,
			cfg.MigrationsPath,
			logger,
		),
	}
}

func buildBatchLock(cfg config.Config, logger logrus.FieldLogger) (portsout.BatchLock, func(), error) {
	if cfg.LockMode != config.LockModeRedis {
		return locallock.NewBatchLock(), nil, nil
	}

	options, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := goredis.NewClient(options)
	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warnf("redis close warning error=%v", err)
		}
	}
	return redislock.NewBatchLock(client, redislock.DefaultKey, cfg.LockTTL, logger), closeClient, nil
}

func buildBalanceReader(cfg config.Config, ledger portsout.AssetLedger) (portsout.AssetBalanceReader, func(), error) {
	if cfg.BalanceSource != config.BalanceSourceEVM {
		return ledger, nil, nil
	}

	client, err := ethclient.Dial(cfg.EVMRPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("evm rpc dial failed: %w", err)
	}
	reader, err := chainobserverevm.NewBalanceReader(client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("evm balance reader setup failed: %w", err)
	}
	return reader, client.Close, nil
}
