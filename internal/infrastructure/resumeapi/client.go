package resumeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kirillkom/resume-tailor/internal/core/ports"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resilience"
)

// Client talks to the remote resume service. Every request carries the
// bearer token supplied by the session provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    ports.SessionProvider
	executor   *resilience.Executor
	schema     *gojsonschema.Schema
}

type Options struct {
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, session ports.SessionProvider) *Client {
	return NewWithOptions(baseURL, session, Options{})
}

func NewWithOptions(baseURL string, session ports.SessionProvider, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		executor:   options.ResilienceExecutor,
		schema:     analyzeResponseSchema,
	}
}
