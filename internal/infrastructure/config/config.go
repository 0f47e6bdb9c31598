package config

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultLogLevel                 = "info"
	defaultLogFormat                = "text"
	defaultMaxBatchEntries          = 2000
	defaultLockTTL                  = 30 * time.Second
	defaultNATSDepositSubject       = "invoicesweep.deposits"
	defaultNATSSweepSubject         = "invoicesweep.sweep.completed"
	defaultAutoSweepPollInterval    = 30 * time.Second
	defaultAutoSweepBatchSize       = 50
	defaultAutoSweepWorkerID        = "autosweep-1"
	defaultAutoSweepLeaseDuration   = 2 * time.Minute
)

const (
	StorageModeMemory     = "memory"
	StorageModePostgreSQL = "postgresql"

	LockModeLocal = "local"
	LockModeRedis = "redis"

	BalanceSourceLedger = "ledger"
	BalanceSourceEVM    = "evm"
)

const configFileEnv = "CONFIG_FILE"

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	LogLevel                 string
	LogFormat                string
	StorageMode              string
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string

	ControllerAddress             string
	ControllerOwnerAddress        string
	ControllerTemplateFingerprint string
	AuthJWTSecret                 string
	MaxBatchEntries               int

	LockMode string
	RedisURL string
	LockTTL  time.Duration

	NATSURL            string
	NATSDepositSubject string
	NATSSweepSubject   string

	BalanceSource string
	EVMRPCURL     string

	DevtestDepositsEnabled bool

	AutoSweepEnabled       bool
	AutoSweepPollInterval  time.Duration
	AutoSweepBatchSize     int
	AutoSweepReceiver      string
	AutoSweepAssetTypes    []string
	AutoSweepWorkerID      string
	AutoSweepLeaseDuration time.Duration
}

// source resolves a key from the environment first and the optional YAML
// file second. File keys are the lower-cased environment names.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(s.file[strings.ToLower(key)])
}

func LoadConfig() (Config, *ConfigError) {
	src, cfgErr := loadSource()
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	cfg := Config{
		Port:                     withDefault(src.get("PORT"), defaultPort),
		OpenAPISpecPath:          withDefault(src.get("OPENAPI_SPEC_PATH"), defaultOpenAPISpec),
		ShutdownTimeout:          defaultShutdownTimeout,
		LogLevel:                 strings.ToLower(withDefault(src.get("LOG_LEVEL"), defaultLogLevel)),
		LogFormat:                strings.ToLower(withDefault(src.get("LOG_FORMAT"), defaultLogFormat)),
		StorageMode:              strings.ToLower(withDefault(src.get("STORAGE_MODE"), StorageModeMemory)),
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           withDefault(src.get("MIGRATIONS_PATH"), defaultMigrationsPath),

		ControllerAddress:             src.get("CONTROLLER_ADDRESS"),
		ControllerOwnerAddress:        src.get("CONTROLLER_OWNER_ADDRESS"),
		ControllerTemplateFingerprint: src.get("CONTROLLER_TEMPLATE_FINGERPRINT"),
		AuthJWTSecret:                 src.get("AUTH_JWT_SECRET"),

		LockMode: strings.ToLower(withDefault(src.get("LOCK_MODE"), LockModeLocal)),
		RedisURL: src.get("REDIS_URL"),

		NATSURL:            src.get("NATS_URL"),
		NATSDepositSubject: withDefault(src.get("NATS_DEPOSIT_SUBJECT"), defaultNATSDepositSubject),
		NATSSweepSubject:   withDefault(src.get("NATS_SWEEP_SUBJECT"), defaultNATSSweepSubject),

		BalanceSource: strings.ToLower(withDefault(src.get("BALANCE_SOURCE"), BalanceSourceLedger)),
		EVMRPCURL:     src.get("EVM_RPC_URL"),

		AutoSweepReceiver: src.get("AUTOSWEEP_RECEIVER"),
		AutoSweepWorkerID: withDefault(src.get("AUTOSWEEP_WORKER_ID"), defaultAutoSweepWorkerID),
	}

	switch cfg.StorageMode {
	case StorageModeMemory:
	case StorageModePostgreSQL:
		cfg.DatabaseURL = src.get("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_DATABASE_URL_REQUIRED",
				Message: "DATABASE_URL is required for postgresql storage mode",
			}
		}
		target, parseErr := parseDatabaseTarget(cfg.DatabaseURL)
		if parseErr != nil {
			return Config{}, parseErr
		}
		cfg.DatabaseTarget = target
	default:
		return Config{}, invalidChoice("CONFIG_STORAGE_MODE_INVALID", "STORAGE_MODE", cfg.StorageMode, StorageModeMemory, StorageModePostgreSQL)
	}

	if cfgErr := requireAddress("CONFIG_CONTROLLER_ADDRESS_INVALID", "CONTROLLER_ADDRESS", cfg.ControllerAddress); cfgErr != nil {
		return Config{}, cfgErr
	}
	if cfgErr := requireAddress("CONFIG_CONTROLLER_OWNER_ADDRESS_INVALID", "CONTROLLER_OWNER_ADDRESS", cfg.ControllerOwnerAddress); cfgErr != nil {
		return Config{}, cfgErr
	}
	if cfg.AuthJWTSecret == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_AUTH_JWT_SECRET_REQUIRED",
			Message: "AUTH_JWT_SECRET is required",
		}
	}

	var parseErr *ConfigError
	if cfg.MaxBatchEntries, parseErr = parsePositiveInt(src, "MAX_BATCH_ENTRIES", defaultMaxBatchEntries); parseErr != nil {
		return Config{}, parseErr
	}

	switch cfg.LockMode {
	case LockModeLocal:
	case LockModeRedis:
		if cfg.RedisURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_REDIS_URL_REQUIRED",
				Message: "REDIS_URL is required for redis lock mode",
			}
		}
	default:
		return Config{}, invalidChoice("CONFIG_LOCK_MODE_INVALID", "LOCK_MODE", cfg.LockMode, LockModeLocal, LockModeRedis)
	}
	if cfg.LockTTL, parseErr = parseDuration(src, "LOCK_TTL", defaultLockTTL); parseErr != nil {
		return Config{}, parseErr
	}

	switch cfg.BalanceSource {
	case BalanceSourceLedger:
	case BalanceSourceEVM:
		if cfg.EVMRPCURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_EVM_RPC_URL_REQUIRED",
				Message: "EVM_RPC_URL is required for evm balance source",
			}
		}
	default:
		return Config{}, invalidChoice("CONFIG_BALANCE_SOURCE_INVALID", "BALANCE_SOURCE", cfg.BalanceSource, BalanceSourceLedger, BalanceSourceEVM)
	}

	if cfg.DevtestDepositsEnabled, parseErr = parseBool(src, "DEVTEST_DEPOSITS_ENABLED", false); parseErr != nil {
		return Config{}, parseErr
	}

	if cfg.AutoSweepEnabled, parseErr = parseBool(src, "AUTOSWEEP_ENABLED", false); parseErr != nil {
		return Config{}, parseErr
	}
	if cfg.AutoSweepPollInterval, parseErr = parseDuration(src, "AUTOSWEEP_POLL_INTERVAL", defaultAutoSweepPollInterval); parseErr != nil {
		return Config{}, parseErr
	}
	if cfg.AutoSweepBatchSize, parseErr = parsePositiveInt(src, "AUTOSWEEP_BATCH_SIZE", defaultAutoSweepBatchSize); parseErr != nil {
		return Config{}, parseErr
	}
	if cfg.AutoSweepLeaseDuration, parseErr = parseDuration(src, "AUTOSWEEP_LEASE_DURATION", defaultAutoSweepLeaseDuration); parseErr != nil {
		return Config{}, parseErr
	}
	if cfg.AutoSweepAssetTypes, parseErr = parseStringList(src, "AUTOSWEEP_ASSETS_JSON"); parseErr != nil {
		return Config{}, parseErr
	}
	if cfg.AutoSweepEnabled {
		if cfgErr := requireAddress("CONFIG_AUTOSWEEP_RECEIVER_INVALID", "AUTOSWEEP_RECEIVER", cfg.AutoSweepReceiver); cfgErr != nil {
			return Config{}, cfgErr
		}
	}

	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func loadSource() (source, *ConfigError) {
	path := strings.TrimSpace(os.Getenv(configFileEnv))
	if path == "" {
		return source{file: map[string]string{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return source{}, &ConfigError{
			Code:     "CONFIG_FILE_READ_FAILED",
			Message:  "CONFIG_FILE could not be read",
			Metadata: map[string]string{"path": path},
		}
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return source{}, &ConfigError{
			Code:     "CONFIG_FILE_INVALID",
			Message:  "CONFIG_FILE must be a flat YAML mapping",
			Metadata: map[string]string{"path": path},
		}
	}

	file := make(map[string]string, len(raw))
	for key, value := range raw {
		normalizedKey := strings.ToLower(strings.TrimSpace(key))
		switch typed := value.(type) {
		case string:
			file[normalizedKey] = typed
		case []any:
			encoded, err := json.Marshal(typed)
			if err != nil {
				return source{}, &ConfigError{
					Code:     "CONFIG_FILE_INVALID",
					Message:  "CONFIG_FILE list values must be scalars",
					Metadata: map[string]string{"path": path, "key": normalizedKey},
				}
			}
			file[normalizedKey] = string(encoded)
		case map[string]any:
			return source{}, &ConfigError{
				Code:     "CONFIG_FILE_INVALID",
				Message:  "CONFIG_FILE must be a flat YAML mapping",
				Metadata: map[string]string{"path": path, "key": normalizedKey},
			}
		case nil:
		default:
			encoded, _ := yaml.Marshal(typed)
			file[normalizedKey] = strings.TrimSpace(string(encoded))
		}
	}

	return source{file: file}, nil
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

func requireAddress(code, key, value string) *ConfigError {
	if !common.IsHexAddress(value) || common.HexToAddress(value) == (common.Address{}) {
		return &ConfigError{
			Code:     code,
			Message:  key + " must be a non-zero 0x-prefixed 20-byte address",
			Metadata: map[string]string{"value": value},
		}
	}
	return nil
}

func parseBool(src source, key string, fallback bool) (bool, *ConfigError) {
	raw := src.get(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a boolean",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

func parsePositiveInt(src source, key string, fallback int) (int, *ConfigError) {
	raw := src.get(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a positive integer",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

func parseDuration(src source, key string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := src.get(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a positive duration",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

func parseStringList(src source, key string) ([]string, *ConfigError) {
	raw := src.get(key)
	if raw == "" {
		return []string{}, nil
	}
	values := []string{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a JSON array of strings",
			Metadata: map[string]string{"value": raw},
		}
	}
	return values, nil
}

func invalidChoice(code, key, value string, allowed ...string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: key + " must be one of " + strings.Join(allowed, ", "),
		Metadata: map[string]string{
			"value": value,
		},
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
