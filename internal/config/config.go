package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                    string
	ServiceName               string
	ServiceVersion            string
	HTTPAddr                  string
	LocalDBURL                string
	RealtimeEnabled           bool
	RealtimeRedisURL          string
	CacheEnabled              bool
	CacheTTL                  time.Duration
	CORSAllowedOrigins        []string
	ReadTimeout               time.Duration
	WriteTimeout              time.Duration
	PprofEnabled              bool
	PprofAddr                 string
	SwaggerEnabled            bool
	AuthBaseURL               string
	AuthIntrospectPath        string
	AuthAdminKey              string
	AuthTimeout               time.Duration
	AuthCircuitEnabled        bool
	AuthCircuitFailureCount   int
	AuthCircuitOpenTimeout    time.Duration
	AuthCircuitHalfOpenMaxReq int
	UptraceEnabled            bool
	UptraceDSN                string
	UptraceLogsEnabled        bool
	PyroscopeEnabled          bool
	PyroscopeServerAddress    string
	PyroscopeAppName          string
	PyroscopeAuthToken        string
	PyroscopeBasicAuthUser    string
	PyroscopeBasicAuthPass    string
	PyroscopeUploadRate       time.Duration
	SweepInterval             time.Duration
	SweepStaleAfter           time.Duration
	SweepMaxRetries           int
	SweepWorkers              int
	LogLevel                  logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	realtimeEnabled, err := strconv.ParseBool(getEnv("REALTIME_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REALTIME_ENABLED: %w", err)
	}
	realtimeRedisURL := strings.TrimSpace(getEnv("REALTIME_REDIS_URL", ""))
	if realtimeEnabled && realtimeRedisURL == "" {
		return Config{}, fmt.Errorf("REALTIME_REDIS_URL is required when REALTIME_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	sweepInterval, err := time.ParseDuration(getEnv("SYNC_SWEEP_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_INTERVAL must be > 0")
	}

	sweepStaleAfter, err := time.ParseDuration(getEnv("SYNC_SWEEP_STALE_AFTER", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_STALE_AFTER: %w", err)
	}
	if sweepStaleAfter <= 0 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_STALE_AFTER must be > 0")
	}

	sweepMaxRetries, err := getEnvAsInt("SYNC_SWEEP_MAX_RETRIES", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_MAX_RETRIES: %w", err)
	}
	if sweepMaxRetries < 1 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_MAX_RETRIES must be >= 1")
	}

	sweepWorkers, err := getEnvAsInt("SYNC_SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_WORKERS: %w", err)
	}
	if sweepWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_WORKERS must be >= 1")
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "scorekeeper-api"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		LocalDBURL:             getEnv("LOCAL_DB_URL", "file:scorekeeper.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"),
		RealtimeEnabled:        realtimeEnabled,
		RealtimeRedisURL:       realtimeRedisURL,
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:           pprofEnabled,
		PprofAddr:              pprofAddr,
		SwaggerEnabled:         swaggerEnabled,
		AuthBaseURL:            getEnv("AUTH_BASE_URL", "http://localhost:8081"),
		AuthIntrospectPath:     getEnv("AUTH_INTROSPECT_PATH", "/v1/auth/introspect"),
		AuthAdminKey:           getEnv("AUTH_ADMIN_KEY", ""),
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		UptraceLogsEnabled:     uptraceLogsEnabled,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPass: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:    pyroscopeUploadRate,
		SweepInterval:          sweepInterval,
		SweepStaleAfter:        sweepStaleAfter,
		SweepMaxRetries:        sweepMaxRetries,
		SweepWorkers:           sweepWorkers,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	authTimeout, err := time.ParseDuration(getEnv("AUTH_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_TIMEOUT: %w", err)
	}

	authCircuitEnabled, err := strconv.ParseBool(getEnv("AUTH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_ENABLED: %w", err)
	}

	authCircuitFailureCount, err := getEnvAsInt("AUTH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if authCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("AUTH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	authCircuitOpenTimeout, err := time.ParseDuration(getEnv("AUTH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if authCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("AUTH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	authCircuitHalfOpenMaxReq, err := getEnvAsInt("AUTH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if authCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("AUTH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logLevel := parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.AuthTimeout = authTimeout
	cfg.AuthCircuitEnabled = authCircuitEnabled
	cfg.AuthCircuitFailureCount = authCircuitFailureCount
	cfg.AuthCircuitOpenTimeout = authCircuitOpenTimeout
	cfg.AuthCircuitHalfOpenMaxReq = authCircuitHalfOpenMaxReq
	cfg.LogLevel = logLevel

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
