package fault

import "github.com/cockroachdb/errors"

// Marks for every way a job can fail. Attached with mark.Wrap/mark.Message
// and matched with errors.Is.
var (
	ProbeMark            = errors.New("failed to probe the audio duration")
	DurationExceededMark = errors.New("audio duration exceeds the allowed maximum")
	SplitMark            = errors.New("failed to split the audio into parts")
	SubmitMark           = errors.New("separation service rejected the upload")
	ProcessingMark       = errors.New("separation service failed to process the audio")
	TimeoutMark          = errors.New("timed out waiting for the separation result")
	DownloadMark         = errors.New("failed to download the separation result")
	MergeMark            = errors.New("failed to merge the result parts")
)

// Marks outside the processing pipeline itself.
var (
	StageConflictMark = errors.New("job stage was changed by another writer")
	TooManyJobsMark   = errors.New("user has too many jobs in flight")
)
