package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/tcge/card-intel/backend/internal/metrics"
)

const (
	remoteRequestTimeout = 30 * time.Second
	remoteProbeTimeout   = 5 * time.Second
	remoteCacheSize      = 128
)

var (
	// ErrRemoteDisabled means no remote service URL was configured.
	ErrRemoteDisabled = errors.New("remote recognition service is not configured")
	// ErrRemoteTimeout is surfaced distinctly so callers never confuse a
	// slow upstream with a local no-match.
	ErrRemoteTimeout = errors.New("remote recognition service timed out")
)

// RemoteMatch is one pre-ranked candidate from the embedding service.
type RemoteMatch struct {
	CardID     uint `json:"card_id"`
	Similarity int  `json:"similarity"`
}

// RemoteRecognitionResult is the embedding service's response body.
type RemoteRecognitionResult struct {
	Success bool          `json:"success"`
	Matches []RemoteMatch `json:"matches"`
	Message string        `json:"message"`
	TimeMs  float64       `json:"time_ms"`
}

// AIStatus reports whether the remote service is configured and reachable.
type AIStatus struct {
	Enabled bool   `json:"enabled"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// RemoteClassifierService sends raw card images to a hosted
// embedding-similarity service. It is an alternate path to the local
// pipeline, never a fallback for it.
type RemoteClassifierService struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	cache   *lru.Cache[string, *RemoteRecognitionResult]
	limiter *rate.Limiter
}

// NewRemoteClassifierService builds the client for baseURL. An empty baseURL
// produces a disabled service whose calls return ErrRemoteDisabled.
func NewRemoteClassifierService(baseURL string) *RemoteClassifierService {
	cache, _ := lru.New[string, *RemoteRecognitionResult](remoteCacheSize)
	return &RemoteClassifierService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: remoteRequestTimeout},
		timeout: remoteRequestTimeout,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Enabled reports whether a remote service URL is configured.
func (s *RemoteClassifierService) Enabled() bool {
	return s.baseURL != ""
}

// Recognize POSTs the image to the remote service and returns its ranked
// matches. Timeouts, non-2xx responses and malformed bodies are terminal
// failures for the request; there is no retry and no local fallback.
func (s *RemoteClassifierService) Recognize(ctx context.Context, imageBytes []byte, topK int) (*RemoteRecognitionResult, error) {
	if !s.Enabled() {
		return nil, ErrRemoteDisabled
	}

	key := fmt.Sprintf("%x:%d", sha256.Sum256(imageBytes), topK)
	if cached, ok := s.cache.Get(key); ok {
		metrics.RemoteCallsTotal.WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("remote recognition rate limit: %w", err)
	}

	body, contentType, err := buildRecognizeForm(imageBytes, topK)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/recognize", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			metrics.RemoteCallsTotal.WithLabelValues("timeout").Inc()
			return nil, ErrRemoteTimeout
		}
		metrics.RemoteCallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("remote recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		metrics.RemoteCallsTotal.WithLabelValues("bad_status").Inc()
		return nil, fmt.Errorf("remote recognition service returned status %d", resp.StatusCode)
	}

	var result RemoteRecognitionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.RemoteCallsTotal.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("malformed response from remote recognition service: %w", err)
	}

	metrics.RemoteCallsTotal.WithLabelValues("success").Inc()
	metrics.RecognitionDuration.WithLabelValues("remote").Observe(time.Since(start).Seconds())
	log.Printf("remote recognition: %d matches in %.0fms", len(result.Matches), result.TimeMs)
	s.cache.Add(key, &result)
	return &result, nil
}

// Status probes the remote service's health endpoint with a short timeout.
func (s *RemoteClassifierService) Status(ctx context.Context) AIStatus {
	if !s.Enabled() {
		return AIStatus{Enabled: false, Message: "remote recognition service is not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, remoteProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return AIStatus{Enabled: true, Message: err.Error()}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return AIStatus{Enabled: true, Message: "remote recognition service unreachable"}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return AIStatus{Enabled: true, Healthy: resp.StatusCode == http.StatusOK}
}

func buildRecognizeForm(imageBytes []byte, topK int) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "card.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("top_k", fmt.Sprintf("%d", topK)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
