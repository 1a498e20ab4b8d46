package dev

import "github.com/naztar0/audio-splitter-be/src/shared/config"

// DynamoDB
const (
	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "localhost"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

// RabbitMQ
const (
	RabbitMQHost     = "amqp://localhost:5672"
	ResultsQueueName = "audio-splitter-results-dev"
	AlertsQueueName  = "audio-splitter-alerts-dev"
)

const SeparationAPIURL = "https://www.lalal.ai/api"
