package config

import (
	"strings"
	"testing"
	"time"
)

func baseEnv() EnvMap {
	return EnvMap{
		"RECEIVING_WALLET": "0xDD49337e6B62C8B0d750CD6F809A84F339a3061e",
		"TOKEN_CONTRACT":   "0x55d398326f99059fF775485246999027B3197955",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(baseEnv())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExplorerURL != "https://api.etherscan.io/v2/api" {
		t.Errorf("unexpected explorer url: %s", cfg.ExplorerURL)
	}
	if cfg.ExplorerChainID != 56 {
		t.Errorf("expected chain id 56, got %d", cfg.ExplorerChainID)
	}
	if cfg.Confirmations != 3 {
		t.Errorf("expected 3 confirmations, got %d", cfg.Confirmations)
	}
	if cfg.VerifyPageSize != 100 || cfg.SummaryPageSize != 20 {
		t.Errorf("unexpected page sizes: %d %d", cfg.VerifyPageSize, cfg.SummaryPageSize)
	}
	if cfg.SummaryCacheTTL != time.Minute {
		t.Errorf("unexpected cache ttl: %s", cfg.SummaryCacheTTL)
	}
	if cfg.OrdersDBDriver != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.OrdersDBDriver)
	}
	if cfg.KafkaTopic != "payhub-verdicts" {
		t.Errorf("unexpected kafka topic: %s", cfg.KafkaTopic)
	}
}

func TestLoadRequiresWalletAndContract(t *testing.T) {
	if _, err := Load(EnvMap{"TOKEN_CONTRACT": "0x55d3"}); err == nil || !strings.Contains(err.Error(), "RECEIVING_WALLET") {
		t.Errorf("expected wallet error, got %v", err)
	}
	if _, err := Load(EnvMap{"RECEIVING_WALLET": "0xDD49"}); err == nil || !strings.Contains(err.Error(), "TOKEN_CONTRACT") {
		t.Errorf("expected contract error, got %v", err)
	}
}

func TestLoadRejectsZeroConfirmations(t *testing.T) {
	env := baseEnv()
	env["CONFIRMATIONS"] = "0"
	if _, err := Load(env); err == nil {
		t.Error("expected error for zero confirmations")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	env := baseEnv()
	env["ORDERS_DB_DRIVER"] = "postgres"
	if _, err := Load(env); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestLoadMysqlDriverDefaultDSN(t *testing.T) {
	env := baseEnv()
	env["ORDERS_DB_DRIVER"] = "mysql"
	cfg, err := Load(env)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !strings.Contains(cfg.OrdersDBDSN, "tcp(127.0.0.1:3306)") {
		t.Errorf("unexpected mysql dsn: %s", cfg.OrdersDBDSN)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	env := baseEnv()
	env["EXPLORER_TIMEOUT"] = "2s"
	env["CONFIRMATIONS"] = "12"
	env["KAFKA_BROKERS"] = "a:9092, b:9092"
	cfg, err := Load(env)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExplorerTimeout != 2*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.ExplorerTimeout)
	}
	if cfg.Confirmations != 12 {
		t.Errorf("unexpected confirmations: %d", cfg.Confirmations)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadKafkaBrokers(t *testing.T) {
	cfg, err := Load(baseEnv())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Errorf("expected default broker, got %v", cfg.KafkaBrokers)
	}

	env := baseEnv()
	env["KAFKA_BROKERS"] = ""
	cfg, err = Load(env)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("explicitly empty brokers must disable publishing, got %v", cfg.KafkaBrokers)
	}
}
