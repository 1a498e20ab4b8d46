package envvar

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ENVIRONMENT           = "ENVIRONMENT"
	AWS_ACCESS_KEY_ID     = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY = "AWS_SECRET_ACCESS_KEY"
	RABBITMQ_URL          = "RABBITMQ_URL"
	RESULTS_QUEUE_NAME    = "RESULTS_QUEUE_NAME"
	ALERTS_QUEUE_NAME     = "ALERTS_QUEUE_NAME"
	SEPARATION_API_URL    = "SEPARATION_API_URL"
	FILES_DIR_PATH        = "FILES_DIR_PATH"

	MAX_AUDIO_DURATION = "MAX_AUDIO_DURATION"
	MIN_AUDIO_DURATION = "MIN_AUDIO_DURATION"
	MAX_FILE_SIZE      = "MAX_FILE_SIZE"
	MAX_USER_JOBS      = "MAX_USER_JOBS"
	POLL_INTERVAL      = "POLL_INTERVAL"
	SWEEP_INTERVAL     = "SWEEP_INTERVAL"
	CHUNK_TIMEOUT      = "CHUNK_TIMEOUT"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetInt(key string, fallback int) int {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("Env variable for key %s is not an integer: %s", key, val))
	}

	return parsed
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Sprintf("Env variable for key %s is not a duration: %s", key, val))
	}

	return parsed
}
