package playback

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"voicecast/internal/domain/audio"
)

// ErrReleased is returned when a released handle is used.
var ErrReleased = errors.New("playback: handle released")

const locatorPrefix = "blob:voicecast/"

// Registry issues short-lived references to generated clips, the terminal
// counterpart of a browser object URL. A clip stays reachable until its handle
// is released.
type Registry struct {
	mu   sync.Mutex
	live map[string]*audio.Clip
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[string]*audio.Clip)}
}

// Acquire registers clip and returns the owning handle.
func (r *Registry) Acquire(clip *audio.Clip) *Handle {
	url := locatorPrefix + uuid.New().String()
	r.mu.Lock()
	r.live[url] = clip
	r.mu.Unlock()
	return &Handle{reg: r, url: url}
}

// Resolve returns the clip behind a live locator.
func (r *Registry) Resolve(url string) (*audio.Clip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clip, ok := r.live[url]
	return clip, ok
}

// Live is the number of unreleased handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *Registry) revoke(url string) {
	r.mu.Lock()
	delete(r.live, url)
	r.mu.Unlock()
}

// Handle owns one registered clip. It holds a mutex, so it is always passed
// by pointer; whoever holds the pointer last is responsible for Release.
type Handle struct {
	reg *Registry

	mu       sync.Mutex
	url      string
	released bool
}

// URL is the locator for this clip. It stays stable after release but no
// longer resolves.
func (h *Handle) URL() string {
	if h == nil {
		return ""
	}
	return h.url
}

// Clip returns the underlying audio while the handle is live.
func (h *Handle) Clip() (*audio.Clip, error) {
	if h == nil {
		return nil, ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	clip, ok := h.reg.Resolve(h.url)
	if !ok {
		return nil, ErrReleased
	}
	return clip, nil
}

// Release revokes the reference. Releasing twice is a no-op.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.reg.revoke(h.url)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
