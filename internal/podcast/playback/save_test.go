package playback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voicecast/internal/domain/audio"
)

func TestSaveClip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := SaveClip(dir, &audio.Clip{Data: []byte("RIFF"), Filename: "../../etc/cloned_voice_en_1.wav"}, "fallback.wav")
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if path != filepath.Join(dir, "cloned_voice_en_1.wav") {
		t.Fatalf("path = %q", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "RIFF" {
		t.Fatalf("content = %q", data)
	}

	path, err = SaveClip(dir, &audio.Clip{Data: []byte("RIFF")}, "fallback.wav")
	if err != nil {
		t.Fatalf("SaveClip fallback: %v", err)
	}
	if filepath.Base(path) != "fallback.wav" {
		t.Fatalf("fallback path = %q", path)
	}

	if _, err := SaveClip(dir, &audio.Clip{}, "x.wav"); err == nil {
		t.Fatal("expected error for empty clip")
	}
}

func TestSaveClipRejectsParentFilename(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")

	for _, name := range []string{"..", " .. ", "../..", "/", "."} {
		path, err := SaveClip(dir, &audio.Clip{Data: []byte("RIFF"), Filename: name}, "fallback.wav")
		if err != nil {
			t.Fatalf("SaveClip(%q): %v", name, err)
		}
		if path != filepath.Join(dir, "fallback.wav") {
			t.Fatalf("SaveClip(%q) path = %q", name, path)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "fallback.wav")); !os.IsNotExist(err) {
		t.Fatalf("wrote outside the output directory: %v", err)
	}

	if _, err := SaveClip(dir, &audio.Clip{Data: []byte("RIFF"), Filename: ".."}, ".."); err == nil {
		t.Fatal("expected error when no usable filename remains")
	}
	if _, err := SaveText(dir, "..", "text"); err == nil {
		t.Fatal("expected SaveText to reject a parent filename")
	}
}

func TestSilentPlayer(t *testing.T) {
	p, err := NewPlayer(Config{Type: "silent"})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	clip := &audio.Clip{Data: []byte("RIFF")}
	if err := p.Play(context.Background(), clip); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := p.(*SilentPlayer).Played(); len(got) != 1 || got[0] != clip {
		t.Fatalf("Played = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Play(ctx, clip); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewPlayerUnknownEngine(t *testing.T) {
	if _, err := NewPlayer(Config{Type: "gramophone"}); err == nil {
		t.Fatal("expected error")
	}
}
