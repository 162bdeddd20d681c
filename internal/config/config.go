// Package config centralises configuration parsing for the merge service.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Pipeline holds the settings the reconciliation core consumes. It is passed
// explicitly into the pipeline entry point so tests can run with alternate
// values without process-wide side effects.
type Pipeline struct {
	// Plausible human weight range; rows outside it are dropped so
	// unit-confusion outliers cannot corrupt the trend.
	MinWeightKg float64
	MaxWeightKg float64

	// Mechanical load score inputs.
	ActivityCoefficients map[string]float64
	DefaultCoefficient   float64
	ReferenceWeightKg    float64
	WeightPenaltyRate    float64
	ElevationCoefficient float64
	DefaultWeightKg      float64

	// Equipment assignment labels.
	RacquetEquipment  string
	DefaultEquipment  string
	RacquetEventName  string
	DefaultEventName  string
	CalendarEventName string

	// Concatenation order for the merge; earlier sources win identity ties.
	SourcePriority []string

	// Decimal convention name ("es" or "en") used for the master tables.
	DecimalConvention string
}

// Config captures runtime configuration for the merge service.
type Config struct {
	HTTPAddress string

	DataRawDir       string
	DataProcessedDir string

	GarminCSVPath      string
	RunkeeperExportDir string
	AppleHealthExport  string
	AppleCDADir        string
	PesoBookCSVPath    string
	CalendarCSVPath    string
	WithingsTokenFile  string
	WithingsClientID   string
	WithingsSecret     string
	WeightMasterPath   string
	ActivityMasterPath string
	RunLockPath        string
	CacheDir           string

	// Optional sinks; empty values disable them.
	PostgresURL  string
	KafkaBrokers []string
	KafkaTopic   string

	Pipeline Pipeline
}

// Load reads environment variables into Config, applying the defaults of the
// reference deployment for local runs.
func Load() Config {
	rawDir := getEnv("DATA_RAW_DIR", "data_raw")
	processedDir := getEnv("DATA_PROCESSED_DIR", "data_processed")

	cfg := Config{
		HTTPAddress: getEnv("HTTP_ADDRESS", ":8080"),

		DataRawDir:       rawDir,
		DataProcessedDir: processedDir,

		GarminCSVPath:      getEnv("GARMIN_CSV_PATH", filepath.Join(processedDir, "historial_garmin_raw.csv")),
		RunkeeperExportDir: getEnv("RUNKEEPER_EXPORT_DIR", filepath.Join(rawDir, "runkeeper_export")),
		AppleHealthExport:  getEnv("APPLE_HEALTH_EXPORT", filepath.Join(rawDir, "apple_health_export", "exportar.xml")),
		AppleCDADir:        getEnv("APPLE_CDA_DIR", filepath.Join(rawDir, "apple_health_export")),
		PesoBookCSVPath:    getEnv("PESOBOOK_CSV_PATH", filepath.Join(rawDir, "staging", "pesobook_history.csv")),
		CalendarCSVPath:    getEnv("CALENDAR_CSV_PATH", filepath.Join(processedDir, "race_calendar.csv")),
		WithingsTokenFile:  getEnv("WITHINGS_TOKEN_FILE", filepath.Join("config", "withings_tokens.json")),
		WithingsClientID:   getEnv("WITHINGS_CLIENT_ID", ""),
		WithingsSecret:     getEnv("WITHINGS_CLIENT_SECRET", ""),
		WeightMasterPath:   getEnv("WEIGHT_MASTER_PATH", filepath.Join(processedDir, "weight_master.csv")),
		ActivityMasterPath: getEnv("ACTIVITY_MASTER_PATH", filepath.Join(processedDir, "activity_master.csv")),
		RunLockPath:        getEnv("RUN_LOCK_PATH", filepath.Join(processedDir, ".merge.lock")),
		CacheDir:           getEnv("CACHE_DIR", filepath.Join(processedDir, "cache")),

		PostgresURL: getEnv("POSTGRES_URL", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "bioengine.merge_runs"),

		Pipeline: DefaultPipeline(),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	cfg.Pipeline.MinWeightKg = getFloatEnv("WEIGHT_MIN_KG", cfg.Pipeline.MinWeightKg)
	cfg.Pipeline.MaxWeightKg = getFloatEnv("WEIGHT_MAX_KG", cfg.Pipeline.MaxWeightKg)
	cfg.Pipeline.ReferenceWeightKg = getFloatEnv("REFERENCE_WEIGHT_KG", cfg.Pipeline.ReferenceWeightKg)
	cfg.Pipeline.WeightPenaltyRate = getFloatEnv("WEIGHT_PENALTY_RATE", cfg.Pipeline.WeightPenaltyRate)
	cfg.Pipeline.ElevationCoefficient = getFloatEnv("ELEVATION_COEFFICIENT", cfg.Pipeline.ElevationCoefficient)
	cfg.Pipeline.DefaultWeightKg = getFloatEnv("DEFAULT_WEIGHT_KG", cfg.Pipeline.DefaultWeightKg)
	cfg.Pipeline.DecimalConvention = getEnv("DECIMAL_CONVENTION", cfg.Pipeline.DecimalConvention)
	if order := getEnv("SOURCE_PRIORITY", ""); order != "" {
		cfg.Pipeline.SourcePriority = splitAndTrim(order)
	}

	return cfg
}

// DefaultPipeline returns the reference deployment's pipeline settings.
func DefaultPipeline() Pipeline {
	return Pipeline{
		MinWeightKg: 70,
		MaxWeightKg: 150,

		ActivityCoefficients: map[string]float64{
			"Running":           2.5,
			"Trail Running":     3.0,
			"Treadmill Running": 2.5,
			"Tennis":            4.5,
			"Walking":           1.0,
			"Cycling":           0.5,
			"Indoor Cycling":    0.5,
		},
		DefaultCoefficient:   1.5,
		ReferenceWeightKg:    76,
		WeightPenaltyRate:    0.04,
		ElevationCoefficient: 0.1,
		DefaultWeightKg:      76,

		RacquetEquipment:  "Babolat Fury 3",
		DefaultEquipment:  "Brooks Adrenaline GTS 23",
		RacquetEventName:  "Tennis",
		DefaultEventName:  "Training",
		CalendarEventName: "Race",

		SourcePriority: []string{"Garmin", "Withings", "Runkeeper", "Apple", "PesoBook"},

		DecimalConvention: "es",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
