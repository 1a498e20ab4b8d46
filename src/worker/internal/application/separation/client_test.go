package separation_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
)

var _ = Describe("Client", func() {
	const (
		fileID   = "remote-file-ID"
		uploadID = "upload-ID"
	)

	var (
		filesDir string

		server *httptest.Server
		client separation.Client

		// scripted server state
		taskState      string
		previewReady   bool
		rejectUploads  bool
		uploadedBody   []byte
		lastForm       url.Values
		downloadStatus int

		chunkPath string
	)

	writeEnvelope := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, err := io.WriteString(w, body)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error
		filesDir, err = os.MkdirTemp("", "separation_test")
		Expect(err).NotTo(HaveOccurred())

		taskState = "progress"
		previewReady = false
		rejectUploads = false
		uploadedBody = nil
		lastForm = nil
		downloadStatus = http.StatusOK

		mux := http.NewServeMux()

		mux.HandleFunc("/upload/multipart/create/", func(w http.ResponseWriter, r *http.Request) {
			if rejectUploads {
				writeEnvelope(w, `{"status": "error", "error": "no more uploads for you"}`)
				return
			}

			writeEnvelope(w, fmt.Sprintf(
				`{"status": "success", "file_id": "%s", "upload_id": "%s", "upload_urls": ["%s/put/"]}`,
				fileID, uploadID, server.URL))
		})

		mux.HandleFunc("/put/", func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			uploadedBody = body
		})

		mux.HandleFunc("/upload/multipart/complete/", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.ParseForm()).To(Succeed())
			lastForm = r.PostForm
			writeEnvelope(w, `{"status": "success"}`)
		})

		mux.HandleFunc("/preview/", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.ParseForm()).To(Succeed())
			lastForm = r.PostForm
			writeEnvelope(w, `{"status": "success"}`)
		})

		mux.HandleFunc("/check/", func(w http.ResponseWriter, r *http.Request) {
			if taskState == "error" {
				writeEnvelope(w, fmt.Sprintf(
					`{"status": "success", "result": {"%s": {"task": {"state": "error", "error": "model choked"}}}}`,
					fileID))
				return
			}

			if !previewReady {
				writeEnvelope(w, fmt.Sprintf(
					`{"status": "success", "result": {"%s": {"task": {"state": "progress"}}}}`,
					fileID))
				return
			}

			writeEnvelope(w, fmt.Sprintf(
				`{"status": "success", "result": {"%s": {"task": {"state": "success"}, "preview": {"stem_track": "%s/download/", "back_track": "%s/download/"}}}}`,
				fileID, server.URL, server.URL))
		})

		mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(downloadStatus)
			_, err := io.WriteString(w, "separated_jamz")
			Expect(err).NotTo(HaveOccurred())
		})

		server = httptest.NewServer(mux)
		client = separation.NewClient(server.URL, server.Client())

		chunkPath = filepath.Join(filesDir, "chunk_0.mp3")
		Expect(os.WriteFile(chunkPath, []byte("cool_jamz"), os.ModePerm)).To(Succeed())
	})

	AfterEach(func() {
		server.Close()
		Expect(os.RemoveAll(filesDir)).To(Succeed())
	})

	Describe("Upload", func() {
		It("pushes the file through the multipart flow", func() {
			uploadedID, err := client.Upload(context.Background(), chunkPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(uploadedID).To(Equal(fileID))
			Expect(string(uploadedBody)).To(Equal("cool_jamz"))

			Expect(lastForm.Get("file_id")).To(Equal(fileID))
			Expect(lastForm.Get("upload_id")).To(Equal(uploadID))
		})

		It("fails with a submit fault when the service refuses", func() {
			rejectUploads = true

			_, err := client.Upload(context.Background(), chunkPath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.SubmitMark)).To(BeTrue())
		})

		It("fails with a submit fault when the file is missing", func() {
			_, err := client.Upload(context.Background(), filepath.Join(filesDir, "no_such.mp3"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.SubmitMark)).To(BeTrue())
		})
	})

	Describe("StartProcessing", func() {
		It("sends the separation parameters", func() {
			request, err := separation.RequestFor(jobentity.StemVocals, jobentity.LevelHigh)
			Expect(err).NotTo(HaveOccurred())

			Expect(client.StartProcessing(context.Background(), fileID, request)).To(Succeed())

			Expect(lastForm.Get("id")).To(Equal(fileID))
			Expect(lastForm.Get("stem")).To(Equal("vocals"))
			Expect(lastForm.Get("splitter")).To(Equal("perseus"))
			Expect(lastForm.Get("enhanced_processing_enabled")).To(Equal("true"))
			Expect(lastForm.Get("dereverb_enabled")).To(Equal("false"))
			Expect(lastForm.Get("noise_canceling_level")).To(Equal("2"))
			Expect(lastForm.Get("with_segments")).To(Equal("false"))
		})
	})

	Describe("Check", func() {
		It("reports not ready while the task is in progress", func() {
			result, err := client.Check(context.Background(), fileID)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Ready()).To(BeFalse())
		})

		It("returns both track URLs once the preview appears", func() {
			previewReady = true

			result, err := client.Check(context.Background(), fileID)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Ready()).To(BeTrue())
			Expect(result.StemURL).To(Equal(server.URL + "/download/"))
			Expect(result.NoStemURL).To(Equal(server.URL + "/download/"))
		})

		It("fails with a processing fault when the task errored upstream", func() {
			taskState = "error"

			_, err := client.Check(context.Background(), fileID)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.ProcessingMark)).To(BeTrue())
		})

		It("fails with a processing fault when the response has no entry", func() {
			_, err := client.Check(context.Background(), "some-other-file-ID")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.ProcessingMark)).To(BeTrue())
		})
	})

	Describe("Download", func() {
		It("streams the result to the destination path", func() {
			destPath := filepath.Join(filesDir, "results", "stem.mp3")

			Expect(client.Download(context.Background(), server.URL+"/download/", destPath)).To(Succeed())

			content, err := os.ReadFile(destPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("separated_jamz"))
		})

		It("fails with a download fault on a refused request", func() {
			downloadStatus = http.StatusForbidden
			destPath := filepath.Join(filesDir, "results", "stem.mp3")

			err := client.Download(context.Background(), server.URL+"/download/", destPath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fault.DownloadMark)).To(BeTrue())
		})
	})
})
