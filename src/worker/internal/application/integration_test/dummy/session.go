package dummy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
)

var _ separation.Session = &Session{}

func NewDummySession() *Session {
	return &Session{
		UploadFailures:   make(map[string]bool),
		ProcessFailures:  make(map[string]bool),
		CheckFailures:    make(map[string]bool),
		DownloadFailures: make(map[string]bool),
		Requests:         make(map[string]separation.ProcessRequest),
		checkCounts:      make(map[string]int),
	}
}

// Session plays the separation service from a script. File ids derive from
// the uploaded file name so tests can target behaviors at specific chunks.
type Session struct {
	// ReadyAfter is how many Check calls a file sees before its result
	// appears. Zero means ready on the first check.
	ReadyAfter int

	UploadFailures   map[string]bool
	ProcessFailures  map[string]bool
	CheckFailures    map[string]bool
	DownloadFailures map[string]bool

	UploadedPaths []string
	Requests      map[string]separation.ProcessRequest

	checkCounts map[string]int
	mutex       sync.Mutex
}

func FileIDFor(filePath string) string {
	return "remote-" + filepath.Base(filePath)
}

func StemURLFor(fileID string) string {
	return fmt.Sprintf("https://separation.dummy/%s/stem.mp3", fileID)
}

func NoStemURLFor(fileID string) string {
	return fmt.Sprintf("https://separation.dummy/%s/no_stem.mp3", fileID)
}

func (s *Session) Upload(ctx context.Context, filePath string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.UploadFailures[filePath] {
		return "", NetworkFailure
	}

	s.UploadedPaths = append(s.UploadedPaths, filePath)
	return FileIDFor(filePath), nil
}

func (s *Session) StartProcessing(ctx context.Context, fileID string, request separation.ProcessRequest) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.ProcessFailures[fileID] {
		return NetworkFailure
	}

	s.Requests[fileID] = request
	return nil
}

func (s *Session) Check(ctx context.Context, fileID string) (separation.CheckResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.CheckFailures[fileID] {
		return separation.CheckResult{}, NetworkFailure
	}

	s.checkCounts[fileID]++
	if s.checkCounts[fileID] <= s.ReadyAfter {
		return separation.CheckResult{}, nil
	}

	return separation.CheckResult{
		StemURL:   StemURLFor(fileID),
		NoStemURL: NoStemURLFor(fileID),
	}, nil
}

func (s *Session) CheckCount(fileID string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.checkCounts[fileID]
}

func (s *Session) Download(ctx context.Context, sourceURL string, destPath string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.DownloadFailures[sourceURL] {
		return NetworkFailure
	}

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	return os.WriteFile(destPath, []byte("separated_jamz"), os.ModePerm)
}
