package cleanup_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/cleanup"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

var _ = Describe("Cleaner", func() {
	const (
		jobID      = "job-ID"
		otherJobID = "other-job-ID"
	)

	var (
		filesDir string

		pathGenerator storagepath.Generator
		cleaner       cleanup.Cleaner
	)

	writeFile := func(path string) {
		Expect(os.MkdirAll(filepath.Dir(path), os.ModePerm)).To(Succeed())
		Expect(os.WriteFile(path, []byte("cool_jamz"), os.ModePerm)).To(Succeed())
	}

	writeArtifacts := func(id string) {
		writeFile(pathGenerator.OriginalPath(id))
		writeFile(pathGenerator.PartPath(id, 0))
		writeFile(pathGenerator.PartPath(id, 1))

		for _, variant := range storagepath.Variants {
			writeFile(pathGenerator.ResultPartPath(variant, id, 0))
			writeFile(pathGenerator.ResultPartPath(variant, id, 1))
			writeFile(pathGenerator.ResultPath(variant, id))
		}
	}

	expectNoArtifacts := func(id string) {
		paths := []string{
			pathGenerator.OriginalPath(id),
			pathGenerator.PartPath(id, 0),
			pathGenerator.PartPath(id, 1),
		}

		for _, variant := range storagepath.Variants {
			paths = append(paths,
				pathGenerator.ResultPartPath(variant, id, 0),
				pathGenerator.ResultPartPath(variant, id, 1),
				pathGenerator.ResultPath(variant, id),
			)
		}

		for _, path := range paths {
			_, err := os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue(), "expected %s to be gone", path)
		}
	}

	expectArtifacts := func(id string) {
		Expect(pathGenerator.OriginalPath(id)).To(BeAnExistingFile())
		Expect(pathGenerator.PartPath(id, 0)).To(BeAnExistingFile())

		for _, variant := range storagepath.Variants {
			Expect(pathGenerator.ResultPartPath(variant, id, 0)).To(BeAnExistingFile())
			Expect(pathGenerator.ResultPath(variant, id)).To(BeAnExistingFile())
		}
	}

	BeforeEach(func() {
		var err error
		filesDir, err = os.MkdirTemp("", "cleanup_test")
		Expect(err).NotTo(HaveOccurred())

		pathGenerator = storagepath.Generator{Root: filesDir}
		cleaner = cleanup.NewCleaner(pathGenerator)

		writeArtifacts(jobID)
		writeArtifacts(otherJobID)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(filesDir)).To(Succeed())
	})

	It("removes every artifact family of the job", func() {
		Expect(cleaner.RemoveArtifacts(jobID)).To(Succeed())

		expectNoArtifacts(jobID)
	})

	It("leaves other jobs' artifacts alone", func() {
		Expect(cleaner.RemoveArtifacts(jobID)).To(Succeed())

		expectArtifacts(otherJobID)
	})

	It("tolerates artifacts that never existed", func() {
		Expect(cleaner.RemoveArtifacts("never-submitted")).To(Succeed())
	})

	It("is idempotent", func() {
		Expect(cleaner.RemoveArtifacts(jobID)).To(Succeed())
		Expect(cleaner.RemoveArtifacts(jobID)).To(Succeed())

		expectNoArtifacts(jobID)
	})
})
