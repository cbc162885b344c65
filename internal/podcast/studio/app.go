// Package studio is the terminal front end: cobra command handlers for
// one-shot steps and an interactive session over the same controllers.
package studio

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"voicecast/internal/auth"
	"voicecast/internal/cli/scheme/colours"
	"voicecast/internal/config"
	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/controller"
	"voicecast/internal/podcast/playback"
	"voicecast/internal/podcast/store"
)

// App wires configuration, the API client and the controllers together.
type App struct {
	cfg *config.Config

	tokens      auth.TokenStore
	closeTokens func() error

	registry *playback.Registry
	store    *store.Store
	ctl      *controller.Controllers
	Player   playback.Player

	in     io.Reader
	ctx    context.Context
	Cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// NewApp returns an App that still needs Open before commands can run.
func NewApp() *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		in:     os.Stdin,
		ctx:    ctx,
		Cancel: cancel,
	}
}

// Open builds the backend client and session for cfg.
func (a *App) Open(cfg *config.Config) error {
	tokens, closeTokens := openTokenStore(cfg)
	client := api.New(cfg.BaseURL, cfg.Timeout, api.WithTokenStore(tokens))
	if err := a.open(cfg, client, tokens); err != nil {
		_ = closeTokens()
		return err
	}
	a.closeTokens = closeTokens
	return nil
}

func (a *App) open(cfg *config.Config, backend controller.Backend, tokens auth.TokenStore) error {
	player, err := playback.NewPlayer(playback.Config{Type: cfg.PlaybackEngine})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.tokens = tokens
	a.Player = player
	a.registry = playback.NewRegistry()
	a.store = store.New(store.Defaults{Params: cfg.Audio, Language: cfg.Language})
	a.ctl = controller.New(backend, a.store, a.registry, controller.Options{
		Upload:        cfg.Upload,
		StageInterval: cfg.StageInterval,
		OutputDir:     cfg.OutputDir,
	})

	logrus.WithFields(logrus.Fields{
		"base_url": cfg.BaseURL,
		"engine":   cfg.PlaybackEngine,
	}).Debug("studio ready")
	return nil
}

// Stop halts playback.
func (a *App) Stop() {
	if a.Player != nil {
		_ = a.Player.Stop()
	}
}

// Close releases the current audio and the token database. Later calls
// return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.Stop()
		if a.store != nil {
			a.store.Close()
		}
		if a.closeTokens != nil {
			a.closeErr = a.closeTokens()
		}
	})
	return a.closeErr
}

// openTokenStore prefers the persistent store and falls back to memory when
// the database cannot be opened, e.g. while another voicecast holds its lock.
func openTokenStore(cfg *config.Config) (auth.TokenStore, func() error) {
	db, err := auth.OpenBadger(auth.BadgerOptions{Dir: cfg.AuthDir, InMemory: cfg.AuthInMemory})
	if err != nil {
		logrus.WithError(err).Warn("token store unavailable, using memory")
		return auth.NewMemoryStore(), func() error { return nil }
	}
	return db, db.Close
}

// ShowWelcome prints the command overview.
func (a *App) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🎙️  Welcome to voicecast")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • voicecast clone <file>   - Clone your voice from a sample")
	fmt.Println("  • voicecast script         - Write a podcast script from a prompt")
	fmt.Println("  • voicecast speak          - Narrate text in a cloned voice")
	fmt.Println("  • voicecast download       - Save a narration to disk")
	fmt.Println("  • voicecast workflow <file> - Clone, write and narrate in one go")
	fmt.Println("  • voicecast studio         - Interactive session")
	fmt.Println("  • voicecast settings       - Show the effective configuration")
	fmt.Println("  • voicecast auth           - Manage the API token")
	fmt.Println()
}
