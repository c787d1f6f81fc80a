package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// HTTPMaxBodyBytes caps request bodies accepted by the API.
	HTTPMaxBodyBytes int64

	// StoreDriver selects the record store: "mongo" or "sqlite3".
	StoreDriver string
	// StoreTimeout bounds every single store call.
	StoreTimeout time.Duration

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MQTTBroker empty disables MQTT ingest.
	MQTTBroker   string
	MQTTPort     int
	MQTTTopic    string
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":5000"
	}

	maxBodyStr := strings.TrimSpace(os.Getenv("HTTP_MAX_BODY_BYTES"))
	if maxBodyStr == "" {
		maxBodyStr = "10485760"
	}
	maxBody, err := strconv.ParseInt(maxBodyStr, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HTTP_MAX_BODY_BYTES %q: %w", maxBodyStr, err)
	}
	if maxBody <= 0 {
		return Config{}, fmt.Errorf("invalid HTTP_MAX_BODY_BYTES %q (must be > 0)", maxBodyStr)
	}

	storeDriver := strings.TrimSpace(os.Getenv("STORE_DRIVER"))
	if storeDriver == "" {
		storeDriver = DriverMongo
	}
	switch storeDriver {
	case DriverMongo, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q (allowed: mongo, sqlite3)", storeDriver)
	}

	storeTimeoutStr := strings.TrimSpace(os.Getenv("STORE_TIMEOUT"))
	if storeTimeoutStr == "" {
		storeTimeoutStr = "5s"
	}
	storeTimeout, err := time.ParseDuration(storeTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid STORE_TIMEOUT %q: %w", storeTimeoutStr, err)
	}
	if storeTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid STORE_TIMEOUT %q (must be > 0)", storeTimeoutStr)
	}

	mongoURI := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDatabase := strings.TrimSpace(os.Getenv("MONGO_DATABASE"))
	if mongoDatabase == "" {
		mongoDatabase = "invernadero"
	}
	mongoCollection := strings.TrimSpace(os.Getenv("MONGO_COLLECTION"))
	if mongoCollection == "" {
		mongoCollection = "datoCollection"
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/invernadero.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q (must be 1-65535)", mqttPortStr)
	}

	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "invernadero/datos"
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "invernadero-server"
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         httpAddr,
		HTTPMaxBodyBytes: maxBody,
		StoreDriver:      storeDriver,
		StoreTimeout:     storeTimeout,
		MongoURI:         mongoURI,
		MongoDatabase:    mongoDatabase,
		MongoCollection:  mongoCollection,
		DSN:              dsn,
		Path:             path,
		MaxOpenConns:     maxOpenConns,
		MaxIdleConns:     maxIdleConns,
		ConnMaxLifetime:  connMaxLifetime,
		MQTTBroker:       mqttBroker,
		MQTTPort:         mqttPort,
		MQTTTopic:        mqttTopic,
		MQTTClientID:     mqttClientID,
	}, nil
}

// MQTTEnabled reports whether a broker was configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
