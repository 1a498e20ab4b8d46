package integration_test_test

import (
	"context"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/merge"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/split"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/cleanup"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/integration_test/dummy"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/intake"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/pipeline"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/sweep"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

var _ = Describe("Job lifecycle", func() {
	const (
		userID = "user-ID"
		title  = "cool jamz"
	)

	var (
		filesDir string

		dummyJobStore  *dummy.JobStore
		dummyProber    *dummy.Prober
		dummySession   *dummy.Session
		dummyDeliverer *dummy.Deliverer
		dummyNotifier  *dummy.Notifier

		pathGenerator storagepath.Generator
		service       intake.Service
		sweeper       sweep.Sweeper
	)

	BeforeEach(func() {
		var err error
		filesDir, err = os.MkdirTemp("", "lifecycle_test")
		Expect(err).NotTo(HaveOccurred())

		dummyJobStore = dummy.NewDummyJobStore()
		dummyProber = dummy.NewDummyProber()
		dummySession = dummy.NewDummySession()
		dummyDeliverer = dummy.NewDummyDeliverer()
		dummyNotifier = dummy.NewDummyNotifier()

		// every unscripted probe reports a two chunk original
		dummyProber.UseFallback = true
		dummyProber.FallbackDuration = 119

		pathGenerator = storagepath.Generator{Root: filesDir}

		service = intake.NewService(dummyJobStore, dummyProber, pathGenerator, intake.Limits{
			MaxUserJobs:        2,
			MaxFileSizeBytes:   1024,
			MinDurationSeconds: 3,
			MaxDurationSeconds: 360,
		})

		splitter := split.NewFFmpegSplitter("ffmpeg", dummy.NewDummyFFmpegExecutor(), dummyProber, pathGenerator, 360)
		merger := merge.NewFFmpegMerger("ffmpeg", dummy.NewDummyFFmpegExecutor(), pathGenerator)

		coordinator := pipeline.NewCoordinator(
			dummyJobStore,
			dummyProber,
			splitter,
			merger,
			func() separation.Session { return dummySession },
			dummyDeliverer,
			pathGenerator,
			time.Millisecond,
			time.Second,
		)

		sweeper = sweep.NewSweeper(
			dummyJobStore,
			coordinator,
			cleanup.NewCleaner(pathGenerator),
			dummyNotifier,
			time.Minute,
		)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(filesDir)).To(Succeed())
	})

	submit := func() jobentity.AudioJob {
		job, err := service.SubmitAudio(
			context.Background(),
			userID,
			title,
			jobentity.StemVocals,
			jobentity.LevelMid,
			strings.NewReader("cool_jamz"),
		)
		Expect(err).NotTo(HaveOccurred())

		// the tail chunk probes at full length, keeping both chunks
		dummyProber.SetDuration(pathGenerator.PartPath(job.ID, 1), 60)
		dummyProber.SetDuration(pathGenerator.ResultPath(storagepath.StemVariant, job.ID), 118)

		return job
	}

	Describe("A submission that separates cleanly", func() {
		It("travels the entire lifecycle in one sweep", func() {
			job := submit()
			Expect(pathGenerator.OriginalPath(job.ID)).To(BeAnExistingFile())

			sweeper.Sweep(context.Background())

			Expect(dummyJobStore.StageHistory[job.ID]).To(Equal([]jobentity.Stage{
				jobentity.StageInit,
				jobentity.StageAwait,
				jobentity.StageProcessing,
				jobentity.StageComplete,
				jobentity.StageCleared,
			}))
		})

		It("delivers the tracks before clearing the artifacts", func() {
			job := submit()

			sweeper.Sweep(context.Background())

			Expect(dummyDeliverer.Deliveries).To(HaveLen(1))
			Expect(dummyDeliverer.Deliveries[0].Job.ID).To(Equal(job.ID))
			Expect(dummyDeliverer.Deliveries[0].Result.DurationSeconds).To(Equal(118))

			_, err := os.Stat(pathGenerator.OriginalPath(job.ID))
			Expect(os.IsNotExist(err)).To(BeTrue())
			_, err = os.Stat(pathGenerator.ResultPath(storagepath.StemVariant, job.ID))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("sends both chunks to the separation service", func() {
			job := submit()

			sweeper.Sweep(context.Background())

			Expect(dummySession.UploadedPaths).To(ConsistOf(
				pathGenerator.PartPath(job.ID, 0),
				pathGenerator.PartPath(job.ID, 1),
			))
			Expect(dummyNotifier.Notifications).To(BeEmpty())
		})
	})

	Describe("A submission whose separation fails", func() {
		It("lands at error, alerts the operator and still gets cleared", func() {
			job := submit()
			dummySession.UploadFailures[pathGenerator.PartPath(job.ID, 0)] = true

			sweeper.Sweep(context.Background())

			Expect(dummyDeliverer.Deliveries).To(BeEmpty())
			Expect(dummyNotifier.Notifications).NotTo(BeEmpty())
			Expect(dummyNotifier.Notifications[0].JobID).To(Equal(job.ID))

			Expect(dummyJobStore.StageHistory[job.ID]).To(Equal([]jobentity.Stage{
				jobentity.StageInit,
				jobentity.StageAwait,
				jobentity.StageProcessing,
				jobentity.StageError,
				jobentity.StageCleared,
			}))

			_, err := os.Stat(pathGenerator.OriginalPath(job.ID))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("A crash between processing and completion", func() {
		It("leaves the job claimed so a later sweep cannot double-process", func() {
			job := submit()
			Expect(dummyJobStore.SetStage(context.Background(), job.ID, jobentity.StageProcessing)).To(Succeed())

			sweeper.Sweep(context.Background())

			Expect(dummySession.UploadedPaths).To(BeEmpty())
			storedJob, err := dummyJobStore.GetJob(context.Background(), job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(storedJob.Stage).To(Equal(jobentity.StageProcessing))
		})
	})
})
