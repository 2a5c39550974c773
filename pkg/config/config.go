package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	StorageBucket   string
	Environment     string

	// Presence entries are pruned after this inactivity window. The value is
	// deliberately a single knob: the handlers all consult the same timeout.
	PresenceTimeout time.Duration
	// How long an admin stays on duty after logging in.
	AdminDutyWindow time.Duration
	// Trailing quiet period before a "stopped typing" notice goes out.
	TypingDebounce time.Duration
	// Partial chunked uploads are abandoned after this idle period.
	UploadIdleTimeout time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FirebaseProject:   getEnv("FIREBASE_PROJECT_ID", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", ""),
		Environment:       getEnv("ENVIRONMENT", "development"),
		PresenceTimeout:   time.Duration(getEnvAsInt64("PRESENCE_TIMEOUT_MINUTES", 20)) * time.Minute,
		AdminDutyWindow:   time.Duration(getEnvAsInt64("ADMIN_DUTY_MINUTES", 10)) * time.Minute,
		TypingDebounce:    time.Duration(getEnvAsInt64("TYPING_DEBOUNCE_SECONDS", 2)) * time.Second,
		UploadIdleTimeout: time.Duration(getEnvAsInt64("UPLOAD_IDLE_TIMEOUT_MINUTES", 10)) * time.Minute,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
