package application

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/naztar0/audio-splitter-be/src/shared/config"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	jobstorage "github.com/naztar0/audio-splitter-be/src/shared/jobs/storage"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/rabbitmq"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/merge"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/probe"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/split"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/cleanup"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/delivery"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/executor"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/intake"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/notify"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/pipeline"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/sweep"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/working_dir"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type Config struct {
	DynamoConfig     config.Dynamo
	RabbitMQURL      string
	ResultsQueueName string
	AlertsQueueName  string

	SeparationAPIURL string
	FFmpegBinPath    string
	FFProbeBinPath   string
	FilesDirPath     string

	MaxAudioDurationSeconds float64
	MinAudioDurationSeconds float64
	MaxFileSizeBytes        int64
	MaxUserJobs             int
	PollInterval            time.Duration
	SweepInterval           time.Duration
	ChunkTimeout            time.Duration
}

type App struct {
	sweeper sweep.Sweeper
}

func NewApp(config Config) App {
	return App{
		sweeper: newSweeper(config),
	}
}

func (a *App) Start() error {
	err := a.sweeper.Run(context.Background())
	if err != nil {
		return cerr.Wrap(err).Error("Sweeper stopped")
	}

	return nil
}

func newSweeper(config Config) sweep.Sweeper {
	jobStore := jobstorage.NewDB(newDynamoDB(config.DynamoConfig))
	pathGenerator := newPathGenerator(config)

	return sweep.NewSweeper(
		jobStore,
		newCoordinator(config, jobStore, pathGenerator),
		cleanup.NewCleaner(pathGenerator),
		notify.NewQueueNotifier(newPublisher(config, config.AlertsQueueName)),
		config.SweepInterval,
	)
}

// NewIntakeService builds the intake front door for embedding into the chat
// layer. The worker binary itself never calls it.
func NewIntakeService(config Config) intake.Service {
	jobStore := jobstorage.NewDB(newDynamoDB(config.DynamoConfig))
	prober := probe.NewFFProbe(config.FFProbeBinPath, executor.BinaryFileExecutor{})

	return intake.NewService(jobStore, prober, newPathGenerator(config), intake.Limits{
		MaxUserJobs:        config.MaxUserJobs,
		MaxFileSizeBytes:   config.MaxFileSizeBytes,
		MinDurationSeconds: config.MinAudioDurationSeconds,
		MaxDurationSeconds: config.MaxAudioDurationSeconds,
	})
}

func newCoordinator(config Config, jobStore jobentity.Store, pathGenerator storagepath.Generator) pipeline.Coordinator {
	binaryExecutor := executor.BinaryFileExecutor{}
	prober := probe.NewFFProbe(config.FFProbeBinPath, binaryExecutor)

	splitter := split.NewFFmpegSplitter(
		config.FFmpegBinPath,
		binaryExecutor,
		prober,
		pathGenerator,
		config.MaxAudioDurationSeconds,
	)

	merger := merge.NewFFmpegMerger(config.FFmpegBinPath, binaryExecutor, pathGenerator)

	newSession := func() separation.Session {
		return separation.NewClient(config.SeparationAPIURL, &http.Client{})
	}

	deliverer := delivery.NewQueueDeliverer(newPublisher(config, config.ResultsQueueName))

	return pipeline.NewCoordinator(
		jobStore,
		prober,
		splitter,
		merger,
		newSession,
		deliverer,
		pathGenerator,
		config.PollInterval,
		config.ChunkTimeout,
	)
}

func newPathGenerator(config Config) storagepath.Generator {
	workingDir := must(working_dir.NewWorkingDir(config.FilesDirPath))
	return storagepath.Generator{Root: workingDir.Root()}
}

func newPublisher(config Config, queueName string) *rabbitmq.QueuePublisher {
	return must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, queueName))
}

func newDynamoDB(dynamoConfig config.Dynamo) *dynamo.DB {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	return dynamo.New(dbSession, dbConfig)
}
