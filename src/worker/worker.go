package main

import (
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/naztar0/audio-splitter-be/src/shared/config"
	"github.com/naztar0/audio-splitter-be/src/shared/config/dev"
	"github.com/naztar0/audio-splitter-be/src/shared/config/envvar"
	"github.com/naztar0/audio-splitter-be/src/shared/config/prod"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/env"
	"github.com/naztar0/audio-splitter-be/src/worker/application"
)

const (
	defaultMaxAudioDuration = 360
	defaultMinAudioDuration = 3
	defaultMaxFileSize      = 20 * 1024 * 1024
	defaultMaxUserJobs      = 2
	defaultPollInterval     = 3 * time.Second
	defaultSweepInterval    = 5 * time.Second
	defaultChunkTimeout     = 10 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file loaded")
	}

	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:      envvar.MustGet(envvar.RABBITMQ_URL),
			ResultsQueueName: envvar.MustGet(envvar.RESULTS_QUEUE_NAME),
			AlertsQueueName:  envvar.MustGet(envvar.ALERTS_QUEUE_NAME),
			SeparationAPIURL: prod.SeparationAPIURL,
			FilesDirPath:     envvar.MustGet(envvar.FILES_DIR_PATH),
		}

	case env.Development:
		appConfig = application.Config{
			DynamoConfig:     dev.DynamoConfig,
			RabbitMQURL:      dev.RabbitMQHost,
			ResultsQueueName: dev.ResultsQueueName,
			AlertsQueueName:  dev.AlertsQueueName,
			SeparationAPIURL: dev.SeparationAPIURL,
			FilesDirPath:     envvar.MustGet(envvar.FILES_DIR_PATH),
		}

	default:
		panic("Unexpected environment")
	}

	appConfig.FFmpegBinPath = config.FFmpegPath()
	appConfig.FFProbeBinPath = config.FFProbePath()

	appConfig.MaxAudioDurationSeconds = float64(envvar.GetInt(envvar.MAX_AUDIO_DURATION, defaultMaxAudioDuration))
	appConfig.MinAudioDurationSeconds = float64(envvar.GetInt(envvar.MIN_AUDIO_DURATION, defaultMinAudioDuration))
	appConfig.MaxFileSizeBytes = int64(envvar.GetInt(envvar.MAX_FILE_SIZE, defaultMaxFileSize))
	appConfig.MaxUserJobs = envvar.GetInt(envvar.MAX_USER_JOBS, defaultMaxUserJobs)
	appConfig.PollInterval = envvar.GetDuration(envvar.POLL_INTERVAL, defaultPollInterval)
	appConfig.SweepInterval = envvar.GetDuration(envvar.SWEEP_INTERVAL, defaultSweepInterval)
	appConfig.ChunkTimeout = envvar.GetDuration(envvar.CHUNK_TIMEOUT, defaultChunkTimeout)

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
