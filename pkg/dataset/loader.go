package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LoaderOptions controls how payloads are read.
type LoaderOptions struct {
	MaxRetries int           // total fetch attempts
	RetryDelay time.Duration // multiplied by the attempt number
	Timeout    time.Duration // per attempt
	MaxBytes   int64
	Client     *http.Client
}

// DefaultLoaderOptions returns three attempts with a one second linear backoff.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		MaxRetries: 3,
		RetryDelay: time.Second,
		Timeout:    30 * time.Second,
		MaxBytes:   512 << 20,
	}
}

// Loader reads datasets from files or URLs.
type Loader struct {
	opts   LoaderOptions
	client *http.Client
}

// statusError is a non-2xx fetch response.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "unexpected status " + e.status
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// NewLoader returns a loader, filling zero options with defaults.
func NewLoader(opts LoaderOptions) *Loader {
	def := DefaultLoaderOptions()
	if opts.MaxRetries < 1 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Loader{opts: opts, client: client}
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads source as a URL or a file path, depending on its scheme.
func (l *Loader) Load(ctx context.Context, source string) (*Dataset, error) {
	if IsURL(source) {
		return l.Fetch(ctx, source)
	}
	return l.LoadFile(source)
}

// LoadFile reads and parses a dataset file.
func (l *Loader) LoadFile(path string) (*Dataset, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	log.Debugf("Read %d bytes from %s", len(payload), path)
	return Parse(payload)
}

// Fetch downloads and parses a dataset. Network errors, 5xx and 429
// responses are retried; format errors never are.
func (l *Loader) Fetch(ctx context.Context, url string) (*Dataset, error) {
	for attempt := 1; ; attempt++ {
		payload, err := l.fetchOnce(ctx, url)
		if err == nil {
			return Parse(payload)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching dataset %s: %w", url, ctx.Err())
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, fmt.Errorf("fetching dataset %s: %w", url, err)
		}
		if attempt >= l.opts.MaxRetries {
			log.Errorf("Fetch of %s failed %d times, giving up", url, attempt)
			return nil, fmt.Errorf("fetching dataset %s after %d attempts: %w", url, attempt, err)
		}

		delay := time.Duration(attempt) * l.opts.RetryDelay
		log.Debugf("Retrying fetch of %s (attempt %d/%d) in %v: %v", url, attempt+1, l.opts.MaxRetries, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("fetching dataset %s: %w", url, ctx.Err())
		}
	}
}

func (l *Loader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(payload)) > l.opts.MaxBytes {
		return nil, &statusError{code: http.StatusRequestEntityTooLarge, status: "payload exceeds size limit"}
	}
	return payload, nil
}
