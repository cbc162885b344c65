package voice

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mb = 1024 * 1024

func TestUploadPolicyCheck(t *testing.T) {
	policy := UploadPolicy{MaxBytes: 50 * mb, Formats: []string{".wav", ".mp3", ".m4a", ".flac"}}

	tests := []struct {
		name    string
		sample  *Sample
		wantErr string
	}{
		{"nil sample", nil, "select a voice sample"},
		{"40MB wav", NewSample("me.wav", 40*mb, nil), ""},
		{"exactly the ceiling", NewSample("me.wav", 50*mb, nil), ""},
		{"60MB wav", NewSample("me.wav", 60*mb, nil), "less than 50MB"},
		{"upper-case extension", NewSample("ME.MP3", mb, nil), ""},
		{"unsupported format", NewSample("me.aiff", mb, nil), "File must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(tt.sample)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Check() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Check() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSampleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	if err := os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := SampleFromFile(path)
	if err != nil {
		t.Fatalf("SampleFromFile: %v", err)
	}
	if s.Name != "voice.wav" || s.Size != 12 {
		t.Fatalf("sample = %+v", s)
	}

	rc, err := s.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "RIFF0000WAVE" {
		t.Fatalf("content = %q", data)
	}

	if _, err := SampleFromFile(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestSampleWithoutContent(t *testing.T) {
	if _, err := NewSample("x.wav", 1, nil).Open(); err == nil {
		t.Fatal("expected error opening sample without content")
	}
}
