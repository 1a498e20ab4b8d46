package merge_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/merge"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/integration_test/dummy"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

var _ = Describe("FFmpegMerger", func() {
	const (
		jobID = "job-ID"
		title = "cool jamz"
	)

	var (
		filesDir string

		dummyExecutor *dummy.FFmpegExecutor
		pathGenerator storagepath.Generator
		merger        merge.FFmpegMerger
	)

	BeforeEach(func() {
		var err error
		filesDir, err = os.MkdirTemp("", "merge_test")
		Expect(err).NotTo(HaveOccurred())

		dummyExecutor = dummy.NewDummyFFmpegExecutor()
		pathGenerator = storagepath.Generator{Root: filesDir}
		merger = merge.NewFFmpegMerger("ffmpeg", dummyExecutor, pathGenerator)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(filesDir)).To(Succeed())
	})

	writeResultPart := func(variant storagepath.Variant, part int) {
		partPath := pathGenerator.ResultPartPath(variant, jobID, part)
		Expect(os.MkdirAll(filepath.Dir(partPath), os.ModePerm)).To(Succeed())
		Expect(os.WriteFile(partPath, []byte("separated_jamz"), os.ModePerm)).To(Succeed())
	}

	Describe("A single part", func() {
		BeforeEach(func() {
			writeResultPart(storagepath.StemVariant, 0)
		})

		It("moves the part into place without running ffmpeg", func() {
			err := merger.Merge(context.Background(), jobID, storagepath.StemVariant, 1, title)
			Expect(err).NotTo(HaveOccurred())

			Expect(dummyExecutor.Commands).To(BeEmpty())
			Expect(pathGenerator.ResultPath(storagepath.StemVariant, jobID)).To(BeAnExistingFile())

			_, statErr := os.Stat(pathGenerator.ResultPartPath(storagepath.StemVariant, jobID, 0))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})

	Describe("Two parts", func() {
		It("crossfades the pair into the result file", func() {
			err := merger.Merge(context.Background(), jobID, storagepath.StemVariant, 2, title)
			Expect(err).NotTo(HaveOccurred())

			Expect(dummyExecutor.Commands).To(HaveLen(1))
			command := dummyExecutor.Commands[0]

			Expect(command[0]).To(Equal("ffmpeg"))
			Expect(command).To(ContainElement(pathGenerator.ResultPartPath(storagepath.StemVariant, jobID, 0)))
			Expect(command).To(ContainElement(pathGenerator.ResultPartPath(storagepath.StemVariant, jobID, 1)))
			Expect(command).To(ContainElement("[0][1]acrossfade=d=1:c1=nofade:c2=cub"))
			Expect(command).To(ContainElement("title=" + title))
			Expect(command[len(command)-1]).To(Equal(pathGenerator.ResultPath(storagepath.StemVariant, jobID)))
		})
	})

	Describe("Three parts", func() {
		It("cascades the crossfades pairwise", func() {
			err := merger.Merge(context.Background(), jobID, storagepath.NoStemVariant, 3, title)
			Expect(err).NotTo(HaveOccurred())

			Expect(dummyExecutor.Commands).To(HaveLen(1))
			command := dummyExecutor.Commands[0]

			Expect(command).To(ContainElement(
				"[0][1]acrossfade=d=1:c1=nofade:c2=cub[a1];[a1][2]acrossfade=d=1:c1=nofade:c2=cub"))
			Expect(command[len(command)-1]).To(Equal(pathGenerator.ResultPath(storagepath.NoStemVariant, jobID)))
		})
	})

	Describe("No parts", func() {
		It("fails with a merge fault", func() {
			err := merger.Merge(context.Background(), jobID, storagepath.StemVariant, 0, title)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.MergeMark)).To(BeTrue())
		})
	})

	Describe("ffmpeg failure", func() {
		It("fails with a merge fault", func() {
			dummyExecutor.ShouldFail = true

			err := merger.Merge(context.Background(), jobID, storagepath.StemVariant, 2, title)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.MergeMark)).To(BeTrue())
		})
	})

	Describe("Cancelled context", func() {
		It("stops before running ffmpeg", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := merger.Merge(ctx, jobID, storagepath.StemVariant, 2, title)
			Expect(err).To(HaveOccurred())
			Expect(dummyExecutor.Commands).To(BeEmpty())
		})
	})
})
