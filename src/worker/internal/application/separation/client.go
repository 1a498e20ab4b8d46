package separation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Session is one connection to the external separation service. A session is
// shared by all chunk drivers of one job run; the chunks operate on disjoint
// remote file ids so no coordination is needed between them.
//
// Every protocol step returns an immutable result value; nothing is carried
// as mutable session state across calls.
//
//counterfeiter:generate . Session
type Session interface {
	Upload(ctx context.Context, filePath string) (string, error)
	StartProcessing(ctx context.Context, fileID string, request ProcessRequest) error
	Check(ctx context.Context, fileID string) (CheckResult, error)
	Download(ctx context.Context, sourceURL string, destPath string) error
}

// CheckResult reports one poll of the service. Both URLs are present once
// the separated tracks are ready; they are opaque, time-limited links.
type CheckResult struct {
	StemURL   string
	NoStemURL string
}

func (c CheckResult) Ready() bool {
	return c.StemURL != "" && c.NoStemURL != ""
}

var _ Session = Client{}

func NewClient(apiURL string, httpClient *http.Client) Client {
	return Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		httpClient: httpClient,
	}
}

type Client struct {
	apiURL     string
	httpClient *http.Client
}

// envelope is the common response shape of every API endpoint.
type envelope struct {
	Status     string   `json:"status"`
	Error      string   `json:"error"`
	FileID     string   `json:"file_id"`
	UploadID   string   `json:"upload_id"`
	UploadURLs []string `json:"upload_urls"`
	Result     map[string]struct {
		Task *struct {
			State string `json:"state"`
			Error string `json:"error"`
		} `json:"task"`
		Preview *struct {
			StemTrack string `json:"stem_track"`
			BackTrack string `json:"back_track"`
		} `json:"preview"`
	} `json:"result"`
}

// Upload pushes one chunk file through the multipart upload flow and returns
// the opaque remote file id. Any rejection is terminal for the chunk.
func (c Client) Upload(ctx context.Context, filePath string) (string, error) {
	errctx := cerr.Field("file_path", filePath)

	created, err := c.postForm(ctx, "/upload/multipart/create/", url.Values{
		"file_name":   {filepath.Base(filePath)},
		"parts_count": {"1"},
	})
	if err != nil {
		return "", mark.Wrap(err, fault.SubmitMark, "Failed to create the upload")
	}

	if len(created.UploadURLs) == 0 {
		submitErr := errctx.Error("Upload create response carried no upload URLs")
		return "", mark.Wrap(submitErr, fault.SubmitMark, "Cannot upload the file")
	}

	if err := c.putFile(ctx, created.UploadURLs[0], filePath); err != nil {
		return "", mark.Wrap(err, fault.SubmitMark, "Failed to upload the file body")
	}

	_, err = c.postForm(ctx, "/upload/multipart/complete/", url.Values{
		"file_id":   {created.FileID},
		"upload_id": {created.UploadID},
	})
	if err != nil {
		return "", mark.Wrap(err, fault.SubmitMark, "Failed to complete the upload")
	}

	return created.FileID, nil
}

func (c Client) StartProcessing(ctx context.Context, fileID string, request ProcessRequest) error {
	_, err := c.postForm(ctx, "/preview/", url.Values{
		"id":                          {fileID},
		"stem":                        {string(request.Stem)},
		"splitter":                    {request.SplitterVariant},
		"enhanced_processing_enabled": {strconv.FormatBool(request.EnhancedProcessing)},
		"dereverb_enabled":            {"false"},
		"noise_canceling_level":       {strconv.Itoa(request.NoiseLevel)},
		"with_segments":               {"false"},
	})
	if err != nil {
		return mark.Wrap(err, fault.ProcessingMark, "Failed to start processing")
	}

	return nil
}

// Check polls the service once. A not-ready response is not an error: it
// returns a zero CheckResult.
func (c Client) Check(ctx context.Context, fileID string) (CheckResult, error) {
	res, err := c.postForm(ctx, "/check/", url.Values{
		"id": {fileID},
	})
	if err != nil {
		return CheckResult{}, mark.Wrap(err, fault.ProcessingMark, "Failed to check the task")
	}

	entry, ok := res.Result[fileID]
	if !ok {
		checkErr := cerr.Field("file_id", fileID).Error("Check response carried no entry for the file")
		return CheckResult{}, mark.Wrap(checkErr, fault.ProcessingMark, "Unexpected check response")
	}

	if entry.Task != nil && entry.Task.State == "error" {
		taskErr := cerr.Field("file_id", fileID).
			Field("task_error", entry.Task.Error).
			Error("Separation task ended in error")
		return CheckResult{}, mark.Wrap(taskErr, fault.ProcessingMark, "Separation failed upstream")
	}

	if entry.Preview == nil {
		return CheckResult{}, nil
	}

	return CheckResult{
		StemURL:   entry.Preview.StemTrack,
		NoStemURL: entry.Preview.BackTrack,
	}, nil
}

// Download streams a result URL to a local file with bounded-size reads so
// large tracks never sit in memory whole.
func (c Client) Download(ctx context.Context, sourceURL string, destPath string) error {
	errctx := cerr.Field("source_url", sourceURL).Field("dest_path", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		downloadErr := errctx.Wrap(err).Error("Failed to build the download request")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot download the result")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		downloadErr := errctx.Wrap(err).Error("Download request failed")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot download the result")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		downloadErr := errctx.Field("status_code", res.StatusCode).Error("Download was refused")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot download the result")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		downloadErr := errctx.Wrap(err).Error("Failed to create the destination dir")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot place the result file")
	}

	outFile, err := os.Create(destPath)
	if err != nil {
		downloadErr := errctx.Wrap(err).Error("Failed to create the destination file")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot place the result file")
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, res.Body); err != nil {
		downloadErr := errctx.Wrap(err).Error("Download was truncated")
		return mark.Wrap(downloadErr, fault.DownloadMark, "Cannot download the result")
	}

	return nil
}

func (c Client) postForm(ctx context.Context, path string, form url.Values) (envelope, error) {
	errctx := cerr.Field("api_path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return envelope{}, errctx.Wrap(err).Error("Failed to build the API request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, errctx.Wrap(err).Error("API request failed")
	}
	defer res.Body.Close()

	parsed := envelope{}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return envelope{}, errctx.Wrap(err).Error("Failed to decode the API response")
	}

	if parsed.Status != "success" {
		return envelope{}, errctx.Field("api_error", parsed.Error).
			Error(fmt.Sprintf("API reported an error: %s", parsed.Error))
	}

	return parsed, nil
}

func (c Client) putFile(ctx context.Context, uploadURL string, filePath string) error {
	errctx := cerr.Field("file_path", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to open the file for upload")
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to build the upload request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errctx.Wrap(err).Error("Upload request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errctx.Field("status_code", res.StatusCode).Error("Upload was refused")
	}

	return nil
}
