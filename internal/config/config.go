package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Sensor      SensorConfig
	Measurement MeasurementConfig
	Simulator   SimulatorConfig
	Messaging   MessagingConfig
	Telemetry   TelemetryConfig
}

type AppConfig struct {
	Port               string `validate:"required"`
	Environment        string
	LogFilePath        string `validate:"required"`
	WsLogFilePath      string `validate:"required"`
	CorsAllowedOrigins string
}

type SensorConfig struct {
	Driver       string `validate:"oneof=sim max30105 max30102"`
	I2CBus       string
	I2CAddr      int `validate:"gt=0,lt=128"`
	LEDAmplitude int `validate:"gte=0,lte=255"`
	SampleAvg    int `validate:"oneof=1 2 4 8 16 32"`
	SampleRate   int `validate:"oneof=50 100 200 400 800 1000 1600 3200"`
	PulseWidth   int `validate:"oneof=69 118 215 411"`
	ADCRange     int `validate:"oneof=2048 4096 8192 16384"`
}

type MeasurementConfig struct {
	DurationMs              int     `validate:"gt=0"`
	MinBeatIntervalMs       int     `validate:"gt=0"`
	MaxBeats                int     `validate:"gt=2"`
	BufferSize              int     `validate:"gt=0"`
	BeatAmplitudeFloor      float64 `validate:"gte=0"`
	FingerPresenceThreshold float64 `validate:"gt=0"`
	FingerGraceMs           int     `validate:"gte=0"`
	MinValidBPM             float64 `validate:"gt=0"`
	MaxValidBPM             float64 `validate:"gtfield=MinValidBPM"`
	BroadcastIntervalMs     int     `validate:"gt=0"`
	LoopIntervalMs          int     `validate:"gt=0"`
	ResultTTLMinutes        int     `validate:"gt=0"`
}

type SimulatorConfig struct {
	HeartRate float64 `validate:"gt=0"`
	SpO2Ratio float64 `validate:"gt=0"`
	Noise     float64 `validate:"gte=0"`
}

type MessagingConfig struct {
	NatsURL  string
	RedisURL string
}

type TelemetryConfig struct {
	OtelEnabled  bool
	OtelEndpoint string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/sensor.log.json"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Sensor: SensorConfig{
			Driver:       getEnv("SENSOR_DRIVER", "sim"),
			I2CBus:       getEnv("SENSOR_I2C_BUS", ""),
			I2CAddr:      getEnvAsInt("SENSOR_I2C_ADDR", 0x57),
			LEDAmplitude: getEnvAsInt("SENSOR_LED_AMPLITUDE", 255),
			SampleAvg:    getEnvAsInt("SENSOR_SAMPLE_AVERAGE", 8),
			SampleRate:   getEnvAsInt("SENSOR_SAMPLE_RATE", 100),
			PulseWidth:   getEnvAsInt("SENSOR_PULSE_WIDTH", 411),
			ADCRange:     getEnvAsInt("SENSOR_ADC_RANGE", 16384),
		},
		Measurement: MeasurementConfig{
			DurationMs:              getEnvAsInt("MEASUREMENT_DURATION_MS", 60000),
			MinBeatIntervalMs:       getEnvAsInt("MIN_BEAT_INTERVAL_MS", 250),
			MaxBeats:                getEnvAsInt("MAX_BEATS", 250),
			BufferSize:              getEnvAsInt("BUFFER_SIZE", 150),
			BeatAmplitudeFloor:      getEnvAsFloat("BEAT_AMPLITUDE_FLOOR", 50),
			FingerPresenceThreshold: getEnvAsFloat("FINGER_PRESENCE_THRESHOLD", 25000),
			FingerGraceMs:           getEnvAsInt("FINGER_GRACE_MS", 2000),
			MinValidBPM:             getEnvAsFloat("MIN_VALID_BPM", 40),
			MaxValidBPM:             getEnvAsFloat("MAX_VALID_BPM", 220),
			BroadcastIntervalMs:     getEnvAsInt("BROADCAST_INTERVAL_MS", 500),
			LoopIntervalMs:          getEnvAsInt("LOOP_INTERVAL_MS", 10),
			ResultTTLMinutes:        getEnvAsInt("RESULT_TTL_MINUTES", 10),
		},
		Simulator: SimulatorConfig{
			HeartRate: getEnvAsFloat("SIM_HEART_RATE", 72),
			SpO2Ratio: getEnvAsFloat("SIM_SPO2_RATIO", 0.52),
			Noise:     getEnvAsFloat("SIM_NOISE", 20),
		},
		Messaging: MessagingConfig{
			NatsURL:  getEnv("NATS_URL", ""),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Telemetry: TelemetryConfig{
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "ppg-monitor-be"),
		},
	}
}

// Validate checks every section against its validate tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (m MeasurementConfig) Duration() time.Duration {
	return time.Duration(m.DurationMs) * time.Millisecond
}

func (m MeasurementConfig) MinBeatInterval() time.Duration {
	return time.Duration(m.MinBeatIntervalMs) * time.Millisecond
}

func (m MeasurementConfig) FingerGrace() time.Duration {
	return time.Duration(m.FingerGraceMs) * time.Millisecond
}

func (m MeasurementConfig) BroadcastInterval() time.Duration {
	return time.Duration(m.BroadcastIntervalMs) * time.Millisecond
}

func (m MeasurementConfig) LoopInterval() time.Duration {
	return time.Duration(m.LoopIntervalMs) * time.Millisecond
}

func (m MeasurementConfig) ResultTTL() time.Duration {
	return time.Duration(m.ResultTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
