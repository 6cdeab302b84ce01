package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/trogers1052/stock-chart-service/internal/chart"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Session  SessionConfig
	Schedule ScheduleConfig
	Chart    ChartConfig
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers    []string
	PriceTopic string
	ChartTopic string
	GroupID    string
}

// Enabled reports whether any broker is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RedisConfig holds the sample cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// SessionConfig bounds the pointer and gesture event rate of a WebSocket session
type SessionConfig struct {
	EventsPerSecond float64
	Burst           int
}

// ScheduleConfig holds the cron expressions for background jobs
type ScheduleConfig struct {
	WarmCron      string
	PruneCron     string
	RetentionDays int
}

// ChartConfig holds chart layout and style, overridable from a YAML file
type ChartConfig struct {
	Dimensions  chart.Dimensions     `yaml:"dimensions"`
	Style       chart.Style          `yaml:"style"`
	Viewport    chart.ViewportConfig `yaml:"viewport"`
	DailyBars   int                  `yaml:"daily_bars"`
	WeeklyBars  int                  `yaml:"weekly_bars"`
	MonthlyBars int                  `yaml:"monthly_bars"`
}

// Bars returns how many samples a chart of the given timeframe keeps
func (c ChartConfig) Bars(timeframe string) int {
	switch timeframe {
	case chart.TimeframeWeekly:
		return c.WeeklyBars
	case chart.TimeframeMonthly:
		return c.MonthlyBars
	default:
		return c.DailyBars
	}
}

// DefaultChartConfig returns the built-in chart layout
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Dimensions:  chart.DefaultDimensions(),
		Style:       chart.DefaultStyle(),
		Viewport:    chart.ViewportConfig{ScaleMin: 1, ScaleMax: 5, WheelFactor: 0.002},
		DailyBars:   65,
		WeeklyBars:  104,
		MonthlyBars: 120,
	}
}

// Load reads a .env file if present, then configuration from environment
// variables. CHART_CONFIG_FILE optionally points at a YAML file that overrides
// the chart section.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "stockcharts"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(getEnvOptional("KAFKA_BROKERS", "localhost:9092")),
			PriceTopic: getEnv("KAFKA_PRICE_TOPIC", "price-bars"),
			ChartTopic: getEnv("KAFKA_CHART_TOPIC", "chart-events"),
			GroupID:    getEnv("KAFKA_GROUP_ID", "stock-chart-service"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOptional("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Schedule: ScheduleConfig{
			WarmCron:  getEnv("CRON_WARM", "0 */15 * * * *"),
			PruneCron: getEnv("CRON_PRUNE", "0 30 2 * * *"),
		},
		Chart:    DefaultChartConfig(),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = getEnvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Session.EventsPerSecond, err = getEnvFloat("SESSION_EVENTS_PER_SECOND", 60); err != nil {
		return nil, err
	}
	if cfg.Session.Burst, err = getEnvInt("SESSION_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.Schedule.RetentionDays, err = getEnvInt("RETENTION_DAYS", 3650); err != nil {
		return nil, err
	}

	if path := os.Getenv("CHART_CONFIG_FILE"); path != "" {
		if err := cfg.Chart.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file keep their current values.
func (c *ChartConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chart config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse chart config: %w", err)
	}
	return nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	d := c.Chart.Dimensions
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("chart dimensions must be positive, got %gx%g", d.Width, d.Height)
	}
	if d.BandPadding < 0 || d.BandPadding >= 1 {
		return fmt.Errorf("chart band_padding must be in [0,1), got %g", d.BandPadding)
	}
	if c.Chart.Viewport.ScaleMax < c.Chart.Viewport.ScaleMin {
		return fmt.Errorf("chart viewport scale_max %g is below scale_min %g",
			c.Chart.Viewport.ScaleMax, c.Chart.Viewport.ScaleMin)
	}
	if c.Chart.DailyBars <= 0 || c.Chart.WeeklyBars <= 0 || c.Chart.MonthlyBars <= 0 {
		return fmt.Errorf("chart bar limits must be positive")
	}
	if c.Session.EventsPerSecond <= 0 {
		return fmt.Errorf("SESSION_EVENTS_PER_SECOND must be positive")
	}
	if c.Schedule.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional differs from getEnv in that a variable set to the empty string
// stays empty, which switches the component off.
func getEnvOptional(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// splitList parses a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
