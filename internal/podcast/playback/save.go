package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voicecast/internal/domain/audio"
)

// SaveClip writes clip into dir. The backend's suggested filename wins over
// fallback; either is reduced to its base name. It returns the written path.
func SaveClip(dir string, clip *audio.Clip, fallback string) (string, error) {
	if clip == nil || clip.Size() == 0 {
		return "", fmt.Errorf("nothing to save")
	}

	name := baseName(clip.Filename)
	if name == "" {
		name = baseName(fallback)
	}
	if name == "" {
		return "", fmt.Errorf("no filename to save under")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio to %s: %w", path, err)
	}
	return path, nil
}

// baseName reduces name to a final path element that stays inside the target
// directory, or "" when nothing usable is left.
func baseName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}

// SaveText writes a script or other text export into dir.
func SaveText(dir, name, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	base := baseName(name)
	if base == "" {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
