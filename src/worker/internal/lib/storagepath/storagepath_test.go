package storagepath_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

var _ = Describe("Generator", func() {
	const jobID = "job-ID"

	generator := storagepath.Generator{Root: "/files"}

	It("places the original under the original dir", func() {
		Expect(generator.OriginalPath(jobID)).To(Equal("/files/original/job-ID.mp3"))
	})

	It("names the parts by job and index", func() {
		Expect(generator.PartPath(jobID, 0)).To(Equal("/files/original_parts/job-ID_0.mp3"))
		Expect(generator.PartPath(jobID, 7)).To(Equal("/files/original_parts/job-ID_7.mp3"))
	})

	It("separates result parts by variant", func() {
		Expect(generator.ResultPartPath(storagepath.StemVariant, jobID, 1)).
			To(Equal("/files/result_parts/stem/job-ID_1.mp3"))
		Expect(generator.ResultPartPath(storagepath.NoStemVariant, jobID, 1)).
			To(Equal("/files/result_parts/no_stem/job-ID_1.mp3"))
	})

	It("separates results by variant", func() {
		Expect(generator.ResultPath(storagepath.StemVariant, jobID)).
			To(Equal("/files/result/stem/job-ID.mp3"))
		Expect(generator.ResultPath(storagepath.NoStemVariant, jobID)).
			To(Equal("/files/result/no_stem/job-ID.mp3"))
	})

	It("exposes both variants for iteration", func() {
		Expect(storagepath.Variants).To(Equal([]storagepath.Variant{
			storagepath.StemVariant,
			storagepath.NoStemVariant,
		}))
	})
})
