package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// SheetTables holds the spreadsheet tab ids (gid) of one season.
type SheetTables struct {
	Matches   string
	Players   string
	Schedules string
	Regional  string
}

// Venue is the home ground shown when no upcoming fixture names one.
type Venue struct {
	Name    string
	Address string
	Info    string
}

// Config stores runtime configuration for the service. The env tags name the
// variable a field is read from and are used in validation errors.
type Config struct {
	AppEnv             string         `env:"APP_ENV" validate:"oneof=dev stage prod"`
	ServiceName        string         `env:"APP_SERVICE_NAME" validate:"required"`
	ServiceVersion     string         `env:"APP_SERVICE_VERSION"`
	HTTPAddr           string         `env:"APP_HTTP_ADDR" validate:"required"`
	CORSAllowedOrigins []string       `env:"CORS_ALLOWED_ORIGINS" validate:"min=1"`
	ReadTimeout        time.Duration  `env:"APP_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout       time.Duration  `env:"APP_WRITE_TIMEOUT" validate:"gt=0"`
	LogLevel           logging.Level  `env:"APP_LOG_LEVEL"`
	Timezone           string         `env:"APP_TIMEZONE" validate:"required"`
	Location           *time.Location `validate:"-"`

	Seasons            []string      `env:"SEASONS" validate:"min=1,dive,numeric"`
	DefaultSeason      string        `env:"DEFAULT_SEASON" validate:"required,numeric"`
	SeasonBatchSize    int           `env:"SEASON_BATCH_SIZE" validate:"gte=1,lte=50"`
	SeasonBatchPause   time.Duration `env:"SEASON_BATCH_PAUSE" validate:"gte=0"`
	SeasonFetchTimeout time.Duration `env:"SEASON_FETCH_TIMEOUT" validate:"gt=0"`
	SeasonFetchRetries int           `env:"SEASON_FETCH_RETRIES" validate:"gte=0,lte=10"`
	SeasonRetryBackoff time.Duration `env:"SEASON_RETRY_BACKOFF" validate:"gte=0"`
	SeasonFileBaseURL  string        `env:"SEASON_FILE_BASE_URL" validate:"required,url"`

	SheetsEnabled             bool                   `env:"SHEETS_ENABLED"`
	SheetsBaseURL             string                 `env:"SHEETS_BASE_URL" validate:"required,url"`
	SheetsDocumentID          string                 `env:"SHEETS_DOCUMENT_ID" validate:"required_if=SheetsEnabled true"`
	SheetsSeasonTables        map[string]SheetTables `env:"SHEETS_SEASON_TABLES" validate:"dive,keys,numeric,endkeys"`
	SheetsTimeout             time.Duration          `env:"SHEETS_TIMEOUT" validate:"gt=0"`
	SheetsCircuitEnabled      bool                   `env:"SHEETS_CIRCUIT_ENABLED"`
	SheetsCircuitFailureCount int                    `env:"SHEETS_CIRCUIT_FAILURE_COUNT" validate:"gte=1"`
	SheetsCircuitOpenTimeout  time.Duration          `env:"SHEETS_CIRCUIT_OPEN_TIMEOUT" validate:"gt=0"`
	SheetsCircuitHalfOpenMax  int                    `env:"SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ" validate:"gte=1"`

	Venue Venue `validate:"-"`

	PprofEnabled               bool          `env:"PPROF_ENABLED"`
	PprofAddr                  string        `env:"PPROF_ADDR" validate:"required_if=PprofEnabled true"`
	UptraceEnabled             bool          `env:"UPTRACE_ENABLED"`
	UptraceDSN                 string        `env:"UPTRACE_DSN" validate:"required_if=UptraceEnabled true"`
	UptraceLogsEnabled         bool          `env:"UPTRACE_LOGS_ENABLED"`
	PyroscopeEnabled           bool          `env:"PYROSCOPE_ENABLED"`
	PyroscopeServerAddress     string        `env:"PYROSCOPE_SERVER_ADDRESS" validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName           string        `env:"PYROSCOPE_APP_NAME" validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAuthToken         string        `env:"PYROSCOPE_AUTH_TOKEN"`
	PyroscopeBasicAuthUser     string        `env:"PYROSCOPE_BASIC_AUTH_USER"`
	PyroscopeBasicAuthPassword string        `env:"PYROSCOPE_BASIC_AUTH_PASSWORD"`
	PyroscopeUploadRate        time.Duration `env:"PYROSCOPE_UPLOAD_RATE" validate:"gt=0"`
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "club-stats-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		Timezone:                   strings.TrimSpace(getEnv("APP_TIMEZONE", "Asia/Seoul")),
		DefaultSeason:              strings.TrimSpace(getEnv("DEFAULT_SEASON", "")),
		SeasonFileBaseURL:          strings.TrimSpace(getEnv("SEASON_FILE_BASE_URL", "http://localhost:8081/seasons")),
		SheetsBaseURL:              strings.TrimSpace(getEnv("SHEETS_BASE_URL", "https://docs.google.com/spreadsheets/d")),
		SheetsDocumentID:           strings.TrimSpace(getEnv("SHEETS_DOCUMENT_ID", "")),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		Venue: Venue{
			Name:    strings.TrimSpace(getEnv("VENUE_NAME", "성불빌라")),
			Address: strings.TrimSpace(getEnv("VENUE_ADDRESS", "서울 노원구 동일로231가길 75")),
			Info:    strings.TrimSpace(getEnv("VENUE_INFO", "")),
		},
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	bools := []struct {
		key      string
		fallback string
		dst      *bool
	}{
		{"SHEETS_ENABLED", "false", &cfg.SheetsEnabled},
		{"SHEETS_CIRCUIT_ENABLED", "true", &cfg.SheetsCircuitEnabled},
		{"PPROF_ENABLED", "false", &cfg.PprofEnabled},
		{"UPTRACE_ENABLED", "false", &cfg.UptraceEnabled},
		{"UPTRACE_LOGS_ENABLED", "true", &cfg.UptraceLogsEnabled},
		{"PYROSCOPE_ENABLED", "false", &cfg.PyroscopeEnabled},
	}
	for _, item := range bools {
		if *item.dst, err = strconv.ParseBool(getEnv(item.key, item.fallback)); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
	}

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"APP_READ_TIMEOUT", "10s", &cfg.ReadTimeout},
		{"APP_WRITE_TIMEOUT", "30s", &cfg.WriteTimeout},
		{"SEASON_BATCH_PAUSE", "100ms", &cfg.SeasonBatchPause},
		{"SEASON_FETCH_TIMEOUT", "8s", &cfg.SeasonFetchTimeout},
		{"SEASON_RETRY_BACKOFF", "1s", &cfg.SeasonRetryBackoff},
		{"SHEETS_TIMEOUT", "10s", &cfg.SheetsTimeout},
		{"SHEETS_CIRCUIT_OPEN_TIMEOUT", "30s", &cfg.SheetsCircuitOpenTimeout},
		{"PYROSCOPE_UPLOAD_RATE", "15s", &cfg.PyroscopeUploadRate},
	}
	for _, item := range durations {
		if *item.dst, err = getEnvAsDuration(item.key, item.fallback); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"SEASON_BATCH_SIZE", 5, &cfg.SeasonBatchSize},
		{"SEASON_FETCH_RETRIES", 2, &cfg.SeasonFetchRetries},
		{"SHEETS_CIRCUIT_FAILURE_COUNT", 3, &cfg.SheetsCircuitFailureCount},
		{"SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ", 1, &cfg.SheetsCircuitHalfOpenMax},
	}
	for _, item := range ints {
		if *item.dst, err = getEnvAsInt(item.key, item.fallback); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
	}

	if cfg.Seasons, err = parseSeasons(getEnv("SEASONS", "2000-2025")); err != nil {
		return Config{}, fmt.Errorf("parse SEASONS: %w", err)
	}
	if cfg.DefaultSeason == "" && len(cfg.Seasons) > 0 {
		cfg.DefaultSeason = cfg.Seasons[len(cfg.Seasons)-1]
	}
	if cfg.SheetsSeasonTables, err = parseSheetTables(getEnv("SHEETS_SEASON_TABLES", "")); err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_SEASON_TABLES: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("parse APP_TIMEZONE: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	if !slices.Contains(cfg.Seasons, cfg.DefaultSeason) {
		return Config{}, fmt.Errorf("DEFAULT_SEASON %q is not listed in SEASONS", cfg.DefaultSeason)
	}
	if cfg.SheetsEnabled && len(cfg.SheetsSeasonTables) == 0 {
		return Config{}, fmt.Errorf("SHEETS_SEASON_TABLES is required when SHEETS_ENABLED=true")
	}

	return cfg, nil
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})
	return v
}

// validate reports the first failing field by its environment variable.
func validate(cfg Config) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	first := fieldErrs[0]
	if first.Param() != "" {
		return fmt.Errorf("invalid %s: must satisfy %s=%s", first.Field(), first.Tag(), first.Param())
	}
	return fmt.Errorf("invalid %s: must satisfy %s", first.Field(), first.Tag())
}

const maxSeasonRange = 200

// parseSeasons accepts a comma separated list where each item is a season id or
// an inclusive range such as 2000-2025. The result is ascending and distinct.
func parseSeasons(raw string) ([]string, error) {
	out := make([]string, 0, 32)
	for _, item := range splitCSV(raw) {
		from, to, isRange := strings.Cut(item, "-")
		if !isRange {
			if _, err := strconv.Atoi(item); err != nil {
				return nil, fmt.Errorf("invalid season %q", item)
			}
			out = append(out, item)
			continue
		}

		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid season range %q", item)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil || end < start || end-start > maxSeasonRange {
			return nil, fmt.Errorf("invalid season range %q", item)
		}
		for year := start; year <= end; year++ {
			out = append(out, strconv.Itoa(year))
		}
	}

	slices.SortFunc(out, func(a, b string) int {
		left, _ := strconv.Atoi(a)
		right, _ := strconv.Atoi(b)
		return left - right
	})
	return slices.Compact(out), nil
}

// parseSheetTables reads items of the form season=matches/players/schedules/regional.
// An empty gid leaves that table out.
func parseSheetTables(raw string) (map[string]SheetTables, error) {
	out := make(map[string]SheetTables)
	for _, item := range splitCSV(raw) {
		seasonID, gids, ok := strings.Cut(item, "=")
		seasonID = strings.TrimSpace(seasonID)
		if !ok || seasonID == "" {
			return nil, fmt.Errorf("invalid item %q, expected season=gid/gid/gid/gid", item)
		}

		parts := strings.Split(gids, "/")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid item %q, expected 4 table ids", item)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		out[seasonID] = SheetTables{
			Matches:   parts[0],
			Players:   parts[1],
			Schedules: parts[2],
			Regional:  parts[3],
		}
	}
	return out, nil
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

	return strconv.Atoi(value)
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
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
	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
