package separation

import (
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

// Each stem routes to a fixed backend model and enhancement policy. These are
// service-side decisions, not user choices.
var splitterVariants = map[jobentity.Stem]string{
	jobentity.StemVocals:         "perseus",
	jobentity.StemVoice:          "perseus",
	jobentity.StemDrum:           "perseus",
	jobentity.StemBass:           "perseus",
	jobentity.StemElectricGuitar: "perseus",
	jobentity.StemAcousticGuitar: "perseus",
	jobentity.StemPiano:          "perseus",
	jobentity.StemSynthesizer:    "phoenix",
	jobentity.StemStrings:        "phoenix",
	jobentity.StemWind:           "phoenix",
}

var enhancedProcessing = map[jobentity.Stem]bool{
	jobentity.StemVocals:         true,
	jobentity.StemVoice:          false,
	jobentity.StemDrum:           true,
	jobentity.StemBass:           false,
	jobentity.StemElectricGuitar: true,
	jobentity.StemAcousticGuitar: true,
	jobentity.StemPiano:          true,
	jobentity.StemSynthesizer:    false,
	jobentity.StemStrings:        false,
	jobentity.StemWind:           false,
}

// ProcessRequest carries the parameters of a start-processing call.
type ProcessRequest struct {
	Stem               jobentity.Stem
	SplitterVariant    string
	EnhancedProcessing bool
	NoiseLevel         int
}

func RequestFor(stem jobentity.Stem, level jobentity.Level) (ProcessRequest, error) {
	splitterVariant, ok := splitterVariants[stem]
	if !ok {
		return ProcessRequest{}, cerr.Field("stem", stem).Error("Stem does not map to any splitter variant")
	}

	return ProcessRequest{
		Stem:               stem,
		SplitterVariant:    splitterVariant,
		EnhancedProcessing: enhancedProcessing[stem],
		NoiseLevel:         int(level),
	}, nil
}
