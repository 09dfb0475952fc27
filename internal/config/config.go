package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ReceivingWallet string
	TokenContract   string
	ExplorerURL     string
	ExplorerAPIKey  string
	ExplorerChainID uint64
	ExplorerTimeout time.Duration
	Confirmations   uint64
	VerifyPageSize  int
	SummaryPageSize int
	HTTPAddr        string
	OrdersDBDriver  string
	OrdersDBDSN     string
	RedisAddr       string
	SummaryCacheTTL time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string
	OtelEndpoint    string
	LogLevel        string
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	wallet, ok := source.Lookup("RECEIVING_WALLET")
	if !ok || strings.TrimSpace(wallet) == "" {
		return Config{}, errors.New("RECEIVING_WALLET is required")
	}
	contract, ok := source.Lookup("TOKEN_CONTRACT")
	if !ok || strings.TrimSpace(contract) == "" {
		return Config{}, errors.New("TOKEN_CONTRACT is required")
	}

	explorerURL := "https://api.etherscan.io/v2/api"
	if raw, ok := source.Lookup("EXPLORER_URL"); ok && strings.TrimSpace(raw) != "" {
		explorerURL = strings.TrimSpace(raw)
	}
	apiKey, _ := source.Lookup("EXPLORER_API_KEY")
	apiKey = strings.TrimSpace(apiKey)

	chainID, err := parseUintEnv(source, "EXPLORER_CHAIN_ID", 56)
	if err != nil {
		return Config{}, err
	}
	confirmations, err := parseUintEnv(source, "CONFIRMATIONS", 3)
	if err != nil {
		return Config{}, err
	}
	if confirmations == 0 {
		return Config{}, errors.New("CONFIRMATIONS must be at least 1")
	}
	verifyPageSize, err := parseIntEnv(source, "VERIFY_PAGE_SIZE", 100)
	if err != nil {
		return Config{}, err
	}
	summaryPageSize, err := parseIntEnv(source, "SUMMARY_PAGE_SIZE", 20)
	if err != nil {
		return Config{}, err
	}

	explorerTimeout, err := parseDurationEnv(source, "EXPLORER_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	summaryCacheTTL, err := parseDurationEnv(source, "SUMMARY_CACHE_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}

	httpAddr := ":8080"
	if raw, ok := source.Lookup("HTTP_ADDR"); ok && raw != "" {
		httpAddr = raw
	}

	ordersDriver := "sqlite"
	if raw, ok := source.Lookup("ORDERS_DB_DRIVER"); ok && strings.TrimSpace(raw) != "" {
		ordersDriver = strings.ToLower(strings.TrimSpace(raw))
	}
	switch ordersDriver {
	case "sqlite", "mysql":
	default:
		return Config{}, fmt.Errorf("unsupported ORDERS_DB_DRIVER %q", ordersDriver)
	}
	ordersDSN := "payhub.db"
	if ordersDriver == "mysql" {
		ordersDSN = "root:@tcp(127.0.0.1:3306)/payhub?parseTime=true&multiStatements=true"
	}
	if raw, ok := source.Lookup("ORDERS_DB_DSN"); ok && strings.TrimSpace(raw) != "" {
		ordersDSN = strings.TrimSpace(raw)
	}

	redisAddr := ""
	if raw, ok := source.Lookup("REDIS_ADDR"); ok {
		redisAddr = strings.TrimSpace(raw)
	}

	kafkaBrokers := parseList(source, "KAFKA_BROKERS", "localhost:9092")
	kafkaTopic, ok := source.Lookup("KAFKA_TOPIC")
	if !ok || kafkaTopic == "" {
		kafkaTopic = "payhub-verdicts"
	}
	kafkaGroupID, ok := source.Lookup("KAFKA_GROUP_ID")
	if !ok || kafkaGroupID == "" {
		kafkaGroupID = "payhub-settler"
	}

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEndpoint = strings.TrimSpace(otelEndpoint)

	logLevel, _ := source.Lookup("LOG_LEVEL")
	logFile, _ := source.Lookup("LOG_FILE")
	logMaxSizeMB, err := parseIntEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseIntEnv(source, "LOG_MAX_BACKUPS", 3)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ReceivingWallet: strings.TrimSpace(wallet),
		TokenContract:   strings.TrimSpace(contract),
		ExplorerURL:     explorerURL,
		ExplorerAPIKey:  apiKey,
		ExplorerChainID: chainID,
		ExplorerTimeout: explorerTimeout,
		Confirmations:   confirmations,
		VerifyPageSize:  verifyPageSize,
		SummaryPageSize: summaryPageSize,
		HTTPAddr:        httpAddr,
		OrdersDBDriver:  ordersDriver,
		OrdersDBDSN:     ordersDSN,
		RedisAddr:       redisAddr,
		SummaryCacheTTL: summaryCacheTTL,
		KafkaBrokers:    kafkaBrokers,
		KafkaTopic:      kafkaTopic,
		KafkaGroupID:    kafkaGroupID,
		OtelEndpoint:    otelEndpoint,
		LogLevel:        logLevel,
		LogFile:         logFile,
		LogMaxSizeMB:    logMaxSizeMB,
		LogMaxBackups:   logMaxBackups,
	}, nil
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseIntEnv(source EnvSource, key string, defaultValue int) (int, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}

// parseList splits a comma-separated value. An unset key falls back to
// the default; a key explicitly set to an empty value means "disabled"
// and yields an empty list.
func parseList(source EnvSource, key string, defaultValue string) []string {
	raw, ok := source.Lookup(key)
	if !ok {
		raw = defaultValue
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}
