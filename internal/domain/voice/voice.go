package voice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Analysis is the optional quality report the backend attaches to a cloned voice.
type Analysis struct {
	Duration string  `json:"duration"`
	Quality  string  `json:"quality"`
	Language string  `json:"language"`
	Clarity  float64 `json:"clarity"`
}

// Reference identifies a cloned voice on the backend. It is only valid for the
// exact sample it was created from.
type Reference struct {
	ID             string
	SourceFileName string
	Analysis       *Analysis
}

// Sample is a voice recording selected for upload.
type Sample struct {
	Name string
	Size int64

	open func() (io.ReadCloser, error)
}

// NewSample builds a Sample whose content is produced by open.
func NewSample(name string, size int64, open func() (io.ReadCloser, error)) *Sample {
	return &Sample{Name: name, Size: size, open: open}
}

// SampleFromFile stats path and returns a Sample reading from it lazily.
func SampleFromFile(path string) (*Sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat voice sample %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("voice sample %s is a directory", path)
	}
	return NewSample(filepath.Base(path), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// SampleFromBytes wraps an in-memory recording.
func SampleFromBytes(name string, data []byte) *Sample {
	return NewSample(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns a reader over the sample content.
func (s *Sample) Open() (io.ReadCloser, error) {
	if s.open == nil {
		return nil, fmt.Errorf("voice sample %s has no content", s.Name)
	}
	return s.open()
}

// Extension returns the lower-cased file extension including the dot.
func (s *Sample) Extension() string {
	return strings.ToLower(filepath.Ext(s.Name))
}

// UploadPolicy bounds which samples may be sent for cloning.
type UploadPolicy struct {
	MaxBytes int64
	Formats  []string
}

// Check reports why a sample cannot be uploaded. The returned message is meant
// for the user.
func (p UploadPolicy) Check(s *Sample) error {
	if s == nil {
		return errors.New("Please select a voice sample first.")
	}
	if p.MaxBytes > 0 && s.Size > p.MaxBytes {
		return fmt.Errorf("File size must be less than %dMB", p.MaxBytes/(1024*1024))
	}
	if len(p.Formats) > 0 && !p.accepts(s.Extension()) {
		return fmt.Errorf("File must be one of: %s", strings.Join(p.Formats, ", "))
	}
	return nil
}

func (p UploadPolicy) accepts(ext string) bool {
	for _, f := range p.Formats {
		if strings.EqualFold(strings.TrimSpace(f), ext) {
			return true
		}
	}
	return false
}
