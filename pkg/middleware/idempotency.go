package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
)

type ReserveResult int

const (
	// Reserved means the caller owns the key and must Complete or Release it.
	Reserved ReserveResult = iota
	// Replay means a completed response is stored for the key.
	Replay
	// InFlight means another request holding the key has not finished.
	InFlight
	// Mismatch means the key was first used with a different request body.
	Mismatch
)

type IdempotencyStore interface {
	Reserve(key, fingerprint string) (*CachedResponse, ReserveResult)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	fingerprint string
	response    *CachedResponse // nil while in flight
	createdAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	stopCh  chan struct{}
	once    sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Reserve(key, fingerprint string) (*CachedResponse, ReserveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if exists && time.Since(entry.createdAt) > s.ttl {
		delete(s.entries, key)
		exists = false
	}

	switch {
	case !exists:
		s.entries[key] = &idempotencyEntry{fingerprint: fingerprint, createdAt: time.Now()}
		return nil, Reserved
	case entry.fingerprint != fingerprint:
		return nil, Mismatch
	case entry.response == nil:
		return nil, InFlight
	default:
		return entry.response, Replay
	}
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		entry.response = response
		entry.createdAt = time.Now()
	}
}

// Release forgets an unfinished key so the client can retry it.
func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && entry.response == nil {
		delete(s.entries, key)
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, entry := range s.entries {
				if time.Since(entry.createdAt) > s.ttl {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	if rc.wroteHeader {
		return
	}
	rc.wroteHeader = true
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key. A
// retry that arrives while the first attempt is still running is rejected
// instead of executed, so a retried create can never allocate twice.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractIdempotencyKey(r, headerName)
			if key == "" || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			fingerprint, err := fingerprintBody(r)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				writeJSONError(w, http.StatusBadRequest, "Failed to read request body")
				return
			}

			cached, result := store.Reserve(key, fingerprint)
			switch result {
			case Replay:
				replayCachedResponse(w, cached)
				return
			case InFlight:
				writeJSONError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
				return
			case Mismatch:
				writeJSONError(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				return
			}

			// statusCode stays 0 until the handler responds.
			capture := &responseCapture{ResponseWriter: w}
			defer func() {
				// A panic or a failure leaves the key free for a retry.
				if capture.statusCode >= 200 && capture.statusCode < 300 {
					store.Complete(key, &CachedResponse{
						StatusCode: capture.statusCode,
						Headers:    w.Header().Clone(),
						Body:       capture.body.Bytes(),
					})
					return
				}
				store.Release(key)
			}()
			next.ServeHTTP(capture, r)
			if capture.statusCode == 0 {
				capture.statusCode = http.StatusOK
			}
		})
	}
}

// extractIdempotencyKey scopes the client key to the route so the same key
// reused on another endpoint does not replay an unrelated response.
func extractIdempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" {
		return ""
	}
	return r.Method + " " + r.URL.Path + " " + key
}

// fingerprintBody hashes the body and restores it for the handler.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
