package jobentity

import (
	"time"

	"github.com/google/uuid"
)

const maxTitleLength = 255

// Stage is the persisted lifecycle field of a job. Transitions are monotone:
// init -> await -> processing -> {complete, error} -> cleared.
type Stage string

const (
	StageInit       Stage = "init"
	StageAwait      Stage = "await"
	StageProcessing Stage = "processing"
	StageError      Stage = "error"
	StageComplete   Stage = "complete"
	StageCleared    Stage = "cleared"
)

// Terminal reports whether a job at this stage is finished and eligible for
// artifact reclamation.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Active reports whether the job still counts against the user's in-flight
// job ceiling.
func (s Stage) Active() bool {
	return s == StageInit || s == StageAwait || s == StageProcessing
}

// Stem is the audio target to isolate.
type Stem string

const (
	StemVocals         Stem = "vocals"
	StemVoice          Stem = "voice"
	StemDrum           Stem = "drum"
	StemBass           Stem = "bass"
	StemElectricGuitar Stem = "electric_guitar"
	StemAcousticGuitar Stem = "acoustic_guitar"
	StemPiano          Stem = "piano"
	StemSynthesizer    Stem = "synthesizer"
	StemStrings        Stem = "strings"
	StemWind           Stem = "wind"
)

var allStems = map[Stem]bool{
	StemVocals:         true,
	StemVoice:          true,
	StemDrum:           true,
	StemBass:           true,
	StemElectricGuitar: true,
	StemAcousticGuitar: true,
	StemPiano:          true,
	StemSynthesizer:    true,
	StemStrings:        true,
	StemWind:           true,
}

func ValidStem(stem Stem) bool {
	return allStems[stem]
}

// Level is the processing intensity passed through to the separation model
// as its noise canceling level.
type Level int

const (
	LevelLow  Level = 0
	LevelMid  Level = 1
	LevelHigh Level = 2
)

func ValidLevel(level Level) bool {
	return level >= LevelLow && level <= LevelHigh
}

// AudioJob is one user-submitted file. Exactly one row exists per submitted
// file; rows are never deleted, only marked cleared.
type AudioJob struct {
	ID        string    `dynamo:"id,hash" json:"id"`
	UserID    string    `dynamo:"user_id" json:"user_id"`
	Title     string    `dynamo:"title" json:"title"`
	Stem      Stem      `dynamo:"stem" json:"stem"`
	Level     Level     `dynamo:"level" json:"level"`
	Stage     Stage     `dynamo:"stage" json:"stage"`
	CreatedAt time.Time `dynamo:"created_at" json:"created_at"`
}

func NewAudioJob(userID string, title string, stem Stem, level Level) AudioJob {
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	return AudioJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Stem:      stem,
		Level:     level,
		Stage:     StageInit,
		CreatedAt: time.Now().UTC(),
	}
}
