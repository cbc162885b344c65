package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voicecast/internal/auth"
	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/script"
	"voicecast/internal/domain/voice"
)

const (
	pathVoiceClone       = "/api/voice_clone/"
	pathGenerateScript   = "/api/generate_script/"
	pathSpeak            = "/api/speak/"
	pathDownloadAudio    = "/api/download_audio/"
	pathCompleteWorkflow = "/api/complete_workflow/"

	requestIDHeader = "X-Request-ID"

	// error bodies larger than this are not worth reading
	maxErrorBody = 1 << 20
)

// Client talks to the voice cloning backend. Every call is a single round trip
// with no retry and no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenStore
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenStore attaches a bearer token source. A 401 response clears it.
func WithTokenStore(store auth.TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// New creates a client for baseURL. timeout bounds each whole request.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &loggingTransport{base: http.DefaultTransport},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FileInfo echoes what the backend received.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// CloneResult is the decoded voice_clone response.
type CloneResult struct {
	VoiceID  string          `json:"voice_id"`
	Message  string          `json:"message"`
	Analysis *voice.Analysis `json:"analysis"`
	FileInfo *FileInfo       `json:"file_info"`
}

// ScriptRequest is the generate_script body.
type ScriptRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
	script.Options
}

// ScriptResult is the decoded generate_script response. The backend has used
// three different names for the text over time.
type ScriptResult struct {
	Script          string `json:"script"`
	Text            string `json:"text"`
	GeneratedScript string `json:"generated_script"`
	WordCount       int    `json:"word_count"`
	CharacterCount  int    `json:"character_count"`
}

// Content returns the first non-empty script field.
func (r *ScriptResult) Content() (string, bool) {
	for _, s := range []string{r.Script, r.Text, r.GeneratedScript} {
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// SpeechRequest is the body of both speak and download_audio. Language is only
// sent for downloads.
type SpeechRequest struct {
	Text     string `json:"text"`
	VoiceID  string `json:"voice_id"`
	Language string `json:"language,omitempty"`
	audio.Params
}

// WorkflowRequest is the complete_workflow submission.
type WorkflowRequest struct {
	Sample   *voice.Sample
	Prompt   string
	Language string
	Params   *audio.Params
}

// WorkflowResult holds whichever fields the backend returned. Absent fields
// stay nil.
type WorkflowResult struct {
	VoiceID  *string
	Script   *string
	AudioURL *string
	Audio    *audio.Clip
}

type workflowResponse struct {
	VoiceID     string `json:"voice_id"`
	Script      string `json:"script"`
	AudioURL    string `json:"audio_url"`
	AudioBase64 string `json:"audio_base64"`
}

// CloneVoice uploads a voice sample and returns the backend's voice id.
func (c *Client) CloneVoice(ctx context.Context, sample *voice.Sample) (*CloneResult, error) {
	if sample == nil {
		return nil, &ValidationError{Field: "audio_file", Message: "no voice sample provided"}
	}

	body, contentType, err := buildMultipart(sample, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "clone voice", pathVoiceClone, contentType, body)
	if err != nil {
		return nil, err
	}

	var out CloneResult
	if err := decodeStrict(resp.body, cloneSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateScript asks the backend to write a script for prompt.
func (c *Client) GenerateScript(ctx context.Context, req ScriptRequest) (*ScriptResult, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "prompt must not be empty"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode script request: %w", err)
	}

	resp, err := c.do(ctx, "generate script", pathGenerateScript, "application/json", body)
	if err != nil {
		return nil, err
	}

	var out ScriptResult
	if err := decodeStrict(resp.body, scriptSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateAudio synthesizes req.Text in the cloned voice for playback.
func (c *Client) GenerateAudio(ctx context.Context, req SpeechRequest) (*audio.Clip, error) {
	req.Language = ""
	return c.speech(ctx, "generate audio", pathSpeak, req)
}

// DownloadAudio synthesizes req.Text for saving to disk. The clip carries the
// backend's suggested filename when one was sent.
func (c *Client) DownloadAudio(ctx context.Context, req SpeechRequest) (*audio.Clip, error) {
	return c.speech(ctx, "download audio", pathDownloadAudio, req)
}

func (c *Client) speech(ctx context.Context, op, path string, req SpeechRequest) (*audio.Clip, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &ValidationError{Field: "text", Message: "text must not be empty"}
	}
	if req.VoiceID == "" {
		return nil, &ValidationError{Field: "voice_id", Message: "voice id is required"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	resp, err := c.do(ctx, op, path, "application/json", body)
	if err != nil {
		return nil, err
	}
	return resp.clip()
}

// RunCompleteWorkflow submits sample and prompt in one multipart request and
// lets the backend clone, write and synthesize.
func (c *Client) RunCompleteWorkflow(ctx context.Context, req WorkflowRequest) (*WorkflowResult, error) {
	if req.Sample == nil {
		return nil, &ValidationError{Field: "audio_file", Message: "no voice sample provided"}
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "prompt must not be empty"}
	}

	fields := [][2]string{
		{"prompt", prompt},
		{"language", req.Language},
	}
	if p := req.Params; p != nil {
		fields = append(fields,
			[2]string{"exaggeration", formatFloat(p.Exaggeration)},
			[2]string{"temperature", formatFloat(p.Temperature)},
			[2]string{"cfg_weight", formatFloat(p.CFGWeight)},
			[2]string{"seed_num", strconv.Itoa(p.Seed)},
		)
	}

	body, contentType, err := buildMultipart(req.Sample, fields)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "complete workflow", pathCompleteWorkflow, contentType, body)
	if err != nil {
		return nil, err
	}

	var raw workflowResponse
	if err := decodeStrict(resp.body, workflowSchema, &raw); err != nil {
		return nil, err
	}

	out := &WorkflowResult{
		VoiceID:  nonEmpty(raw.VoiceID),
		Script:   nonEmpty(raw.Script),
		AudioURL: nonEmpty(raw.AudioURL),
	}
	if raw.AudioBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(raw.AudioBase64)
		if err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("audio_base64 is not valid base64: %v", err)}
		}
		out.Audio = &audio.Clip{Data: data, ContentType: "audio/wav", CreatedAt: time.Now()}
	}
	return out, nil
}

type response struct {
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, op, path, contentType string, body []byte) (*response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(requestIDHeader, uuid.New().String())
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.serverError(ctx, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return &response{header: resp.Header, body: data}, nil
}

func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	rec, err := c.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			logrus.WithError(err).Warn("failed to load auth token")
		}
		return ""
	}
	return rec.Token
}

func (c *Client) serverError(ctx context.Context, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error any `json:"error"`
	}
	serr := &ServerError{Status: resp.StatusCode}
	if json.Unmarshal(data, &envelope) == nil {
		if msg, ok := envelope.Error.(string); ok {
			serr.Message = msg
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			logrus.WithError(err).Warn("failed to clear auth token after 401")
		} else {
			logrus.Info("cleared stored auth token after 401 response")
		}
	}
	return serr
}

// clip interprets the body as audio. JSON or text is refused so an error
// payload never masquerades as a playable file.
func (r *response) clip() (*audio.Clip, error) {
	declared := r.header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(declared)

	if len(r.body) == 0 {
		return nil, &MalformedResponseError{Reason: "empty audio body", ContentType: declared}
	}
	if mediaType == "application/json" || strings.HasPrefix(mediaType, "text/") {
		return nil, &MalformedResponseError{Reason: "expected audio, got " + mediaType, ContentType: declared}
	}
	if sniffed := http.DetectContentType(r.body); strings.HasPrefix(sniffed, "text/") {
		return nil, &MalformedResponseError{Reason: "body looks like " + sniffed, ContentType: declared}
	}

	clip := &audio.Clip{
		Data:        r.body,
		ContentType: declared,
		CreatedAt:   time.Now(),
	}
	if cd := r.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			clip.Filename = params["filename"]
		}
	}
	return clip, nil
}

func buildMultipart(sample *voice.Sample, fields [][2]string) ([]byte, string, error) {
	src, err := sample.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open voice sample: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", sample.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("failed to read voice sample: %w", err)
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
