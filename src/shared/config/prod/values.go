package prod

const (
	DynamoDBRegion = "us-east-2"

	SeparationAPIURL = "https://www.lalal.ai/api"
)
