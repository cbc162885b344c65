package studio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"voicecast/internal/auth"
	"voicecast/internal/config"
	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/voice"
	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/playback"
)

var wavBytes = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")

type backend struct {
	mu    sync.Mutex
	paths []string
	seeds []int
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.paths = append(b.paths, r.URL.Path)
	}
	mux.HandleFunc("/api/voice_clone/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voice_id":"voice-1","analysis":{"duration":"12s","quality":"good","language":"en","clarity":0.9}}`))
	})
	mux.HandleFunc("/api/generate_script/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Welcome to the renewable energy hour."}`))
	})
	speech := func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var req struct {
			Seed int `json:"seed_num"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode speech request: %v", err)
		}
		b.mu.Lock()
		b.seeds = append(b.seeds, req.Seed)
		b.mu.Unlock()
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wavBytes)
	}
	mux.HandleFunc("/api/speak/", speech)
	mux.HandleFunc("/api/download_audio/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="cloned_voice_en_20240101_000000.wav"`)
		speech(w, r)
	})
	mux.HandleFunc("/api/complete_workflow/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voice_id":"voice-2","audio_url":"https://cdn.example/out.wav"}`))
	})
	return mux
}

func newTestApp(t *testing.T, url string) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		BaseURL:        url,
		Timeout:        5 * time.Second,
		Upload:         voice.UploadPolicy{MaxBytes: 50 * 1024 * 1024, Formats: []string{".wav", ".mp3", ".m4a", ".flac"}},
		Audio:          audio.DefaultParams(),
		Language:       "en",
		OutputDir:      dir,
		PlaybackEngine: playback.EngineTypeSilent.String(),
	}
	tokens := auth.NewMemoryStore()
	app := NewApp()
	if err := app.open(cfg, api.New(url, cfg.Timeout, api.WithTokenStore(tokens)), tokens); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "me.wav")
	if err := os.WriteFile(path, wavBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSession(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	input := strings.Join([]string{
		"file " + writeSample(t),
		"clone",
		"prompt renewable energy podcast intro",
		"script",
		"set seed 7",
		"speak",
		"set seed 8",
		"speak",
		"save-script",
		"download",
		"status",
		"bogus",
		"quit",
		"script", // never reached
	}, "\n")

	if err := app.Session(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}

	st := app.ctl.State()
	if st.VoiceID() != "voice-1" || st.Voice.Analysis == nil {
		t.Fatalf("voice = %+v", st.Voice)
	}
	if st.GeneratedScript != "Welcome to the renewable energy hour." {
		t.Fatalf("script = %q", st.GeneratedScript)
	}
	if st.Params.Seed != 8 {
		t.Fatalf("seed = %d", st.Params.Seed)
	}
	if app.registry.Live() != 1 {
		t.Fatalf("live audio = %d", app.registry.Live())
	}
	if played := app.Player.(*playback.SilentPlayer).Played(); len(played) != 2 {
		t.Fatalf("played %d clips", len(played))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	want := []string{"/api/voice_clone/", "/api/generate_script/", "/api/speak/", "/api/speak/", "/api/download_audio/"}
	if strings.Join(b.paths, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v", b.paths)
	}
	if len(b.seeds) != 3 || b.seeds[0] != 7 || b.seeds[1] != 8 {
		t.Fatalf("seeds = %v", b.seeds)
	}

	for _, name := range []string{scriptExportName, "cloned_voice_en_20240101_000000.wav"} {
		if _, err := os.Stat(filepath.Join(app.cfg.OutputDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestSessionEditAndReset(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")
	input := "edit\nline one\nline two\n.\nset temperature 1.5\nreset\n"
	if err := app.Session(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	st := app.ctl.State()
	if st.CurrentScript() != "" || st.Params != audio.DefaultParams() {
		t.Fatalf("state after reset = %+v", st)
	}
}

func TestSessionEdit(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")
	input := "edit\nline one\nline two\n.\nset temperature 1.5\noptions tone=calm type=news\n"
	if err := app.Session(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	st := app.ctl.State()
	if st.CurrentScript() != "line one\nline two" {
		t.Fatalf("script = %q", st.CurrentScript())
	}
	if st.Params.Temperature != audio.DefaultParams().Temperature {
		t.Fatal("out-of-range temperature must be rejected")
	}
	if st.ScriptOptions.Tone != "calm" || st.ScriptOptions.ContentType != "news" {
		t.Fatalf("options = %+v", st.ScriptOptions)
	}
}

func TestRunWorkflowCommand(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	cmd := &cobra.Command{}
	cmd.Flags().String("prompt", "", "")
	cmd.Flags().String("language", "", "")
	cmd.Flags().Bool("save", false, "")
	cmd.Flags().Bool("no-play", false, "")
	AddParamFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--prompt", "tech news", "--preset", "calm", "--seed", "3"}); err != nil {
		t.Fatal(err)
	}

	if err := app.RunWorkflow(cmd, []string{writeSample(t)}); err != nil {
		t.Fatal(err)
	}
	st := app.ctl.State()
	if st.VoiceID() != "voice-2" || st.Audio.URL != "https://cdn.example/out.wav" {
		t.Fatalf("state = %+v", st)
	}
	if st.Params.Seed != 3 || st.Params.Temperature != 0.3 {
		t.Fatalf("params = %+v", st.Params)
	}
}

func TestAuthCommands(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")
	root := &cobra.Command{Use: "voicecast"}
	app.AddAuthCommands(root)

	root.SetArgs([]string{"auth", "login", "--token", "secret-token-123"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	rec, err := app.tokens.Load(context.Background())
	if err != nil || rec.Token != "secret-token-123" {
		t.Fatalf("token = %+v, %v", rec, err)
	}

	root.SetArgs([]string{"auth", "logout"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := app.tokens.Load(context.Background()); err != auth.ErrNoToken {
		t.Fatalf("after logout err = %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	if got := maskToken("abcdefghijkl"); got != "abcd…ijkl" {
		t.Errorf("got %q", got)
	}
	if got := maskToken("short"); got != "*****" {
		t.Errorf("got %q", got)
	}
}
