package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP
	ListenAddr    string
	PublicBaseURL string

	// Database
	DBPath string

	// Chain
	ThorBaseURL         string
	ContractAddr        string
	ReceiptPollInterval time.Duration
	ReceiptMaxAttempts  int

	// Bridge
	BridgeBaseURL      string
	BridgePartner      string
	BridgePollInterval time.Duration

	// Reconciliation
	ReconcileInterval time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://vegate.app"),

		DBPath: getEnv("DB_PATH", "./vegate.db"),

		ThorBaseURL:         getEnv("THOR_BASE_URL", "https://testnet.vechain.org"),
		ContractAddr:        getEnv("VEGATE_CONTRACT_ADDR", "0xcdf1f352fae939eb61b8262859ee9f5f376d21b5"),
		ReceiptPollInterval: getEnvDuration("RECEIPT_POLL_INTERVAL", 2*time.Second),
		ReceiptMaxAttempts:  getEnvInt("RECEIPT_MAX_ATTEMPTS", 30),

		BridgeBaseURL:      getEnv("BRIDGE_BASE_URL", "https://api-testnet.wanchain.org"),
		BridgePartner:      getEnv("BRIDGE_PARTNER", "vegate"),
		BridgePollInterval: getEnvDuration("BRIDGE_POLL_INTERVAL", 30*time.Second),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
