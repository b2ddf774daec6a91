package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	FaceMatch  FaceMatchConfig
	Attendance AttendanceConfig
}

type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token verification configuration. Tokens are issued by the
// identity provider; this service only verifies them.
type JWTConfig struct {
	Secret string
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

// FaceMatchConfig points at the external face-matching service.
type FaceMatchConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AttendanceConfig carries the fixed office coordinate and all decision
// thresholds. Read-only after Load; injected into the pipeline so tests can
// vary office location and thresholds per case.
type AttendanceConfig struct {
	OfficeName      string
	OfficeAddress   string
	OfficeLatitude  float64
	OfficeLongitude float64

	// GeofenceRadiusMeters is the maximum allowed distance from the office.
	GeofenceRadiusMeters float64

	// FaceMatchThreshold is the hard reject bound on normalized confidence.
	FaceMatchThreshold float64
	// FaceSoftThreshold flags low-confidence matches without rejecting.
	FaceSoftThreshold float64
	// EscalationThreshold gates the multi-warning forced mismatch.
	EscalationThreshold float64

	// RapidAttemptWindow is the lookback for the rapid-repeat fraud rule.
	RapidAttemptWindow time.Duration
	// AnomalyRadiusMeters bounds how far a submission may drift from recent
	// check-in locations before it is flagged.
	AnomalyRadiusMeters float64
}

func Load() (*Config, error) {
	// A missing .env file is fine in deployed environments.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "dhanush-hrms"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	faceTimeout, err := time.ParseDuration(getEnv("FACE_MATCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_MATCH_TIMEOUT: %w", err)
	}
	config.FaceMatch = FaceMatchConfig{
		BaseURL: getEnv("FACE_MATCH_BASE_URL", "http://localhost:9090"),
		APIKey:  getEnv("FACE_MATCH_API_KEY", ""),
		Timeout: faceTimeout,
	}

	attendance, err := loadAttendanceConfig()
	if err != nil {
		return nil, err
	}
	config.Attendance = attendance

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendanceConfig() (AttendanceConfig, error) {
	lat, err := getEnvFloat("OFFICE_LATITUDE", 17.4065)
	if err != nil {
		return AttendanceConfig{}, err
	}
	lon, err := getEnvFloat("OFFICE_LONGITUDE", 78.4772)
	if err != nil {
		return AttendanceConfig{}, err
	}
	radius, err := getEnvFloat("GEOFENCE_RADIUS_METERS", 100)
	if err != nil {
		return AttendanceConfig{}, err
	}
	hardThreshold, err := getEnvFloat("FACE_MATCH_THRESHOLD", 60)
	if err != nil {
		return AttendanceConfig{}, err
	}
	softThreshold, err := getEnvFloat("FACE_SOFT_THRESHOLD", 70)
	if err != nil {
		return AttendanceConfig{}, err
	}
	escalation, err := getEnvFloat("FACE_ESCALATION_THRESHOLD", 85)
	if err != nil {
		return AttendanceConfig{}, err
	}
	anomalyRadius, err := getEnvFloat("ANOMALY_RADIUS_METERS", 1000)
	if err != nil {
		return AttendanceConfig{}, err
	}
	attemptWindow, err := time.ParseDuration(getEnv("RAPID_ATTEMPT_WINDOW", "5m"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid RAPID_ATTEMPT_WINDOW: %w", err)
	}

	return AttendanceConfig{
		OfficeName:           getEnv("OFFICE_NAME", "Dhanush Healthcare Pvt. Ltd."),
		OfficeAddress:        getEnv("OFFICE_ADDRESS", "Hyderabad, Telangana"),
		OfficeLatitude:       lat,
		OfficeLongitude:      lon,
		GeofenceRadiusMeters: radius,
		FaceMatchThreshold:   hardThreshold,
		FaceSoftThreshold:    softThreshold,
		EscalationThreshold:  escalation,
		RapidAttemptWindow:   attemptWindow,
		AnomalyRadiusMeters:  anomalyRadius,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.GeofenceRadiusMeters <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
