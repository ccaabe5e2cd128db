package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/models"
)

// FilterPath is the endpoint the dispatcher posts to, relative to the base URL.
const FilterPath = "/filter_cards"

const cardListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id":           {"type": ["string", "number", "null"]},
			"name":         {"type": ["string", "number", "null"]},
			"course":       {"type": ["string", "number", "null"]},
			"department":   {"type": ["string", "number", "null"]},
			"passing_year": {"type": ["string", "number", "null"]},
			"user_image":   {"type": ["string", "null"]}
		}
	}
}`

var cardListValidator = mustSchema(cardListSchema)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("listing: invalid card schema: %v", err))
	}
	return schema
}

// Outcome is the terminal result of one dispatch. Exactly one of Cards or Err is meaningful.
type Outcome struct {
	Seq   uint64
	Cards []models.Card
	Err   error
}

// Dispatcher sends the current selection to the filter endpoint.
type Dispatcher struct {
	endpoint string
	client   *http.Client
	token    string
	logger   *zap.Logger
	duration *prometheus.HistogramVec
	seq      atomic.Uint64
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client. The default has no timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithBearerToken attaches an Authorization header to every request.
func WithBearerToken(token string) Option {
	return func(d *Dispatcher) {
		d.token = token
	}
}

// WithMetrics records dispatch latency by outcome on reg.
// Registering twice on the same registry reuses the existing collector.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(d *Dispatcher) {
		if reg == nil {
			return
		}
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listing_dispatch_duration_seconds",
			Help:    "Duration of filter requests issued by the listing client",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"})
		if err := reg.Register(vec); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				d.logger.Warn("listing metrics disabled", zap.Error(err))
				return
			}
			existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				return
			}
			vec = existing
		}
		d.duration = vec
	}
}

// NewDispatcher constructs a dispatcher for the directory at baseURL.
func NewDispatcher(baseURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoint: strings.TrimRight(baseURL, "/") + FilterPath,
		client:   &http.Client{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next reserves the sequence number for a new dispatch.
func (d *Dispatcher) Next() uint64 {
	return d.seq.Add(1)
}

// IsLatest reports whether no dispatch was started after seq.
func (d *Dispatcher) IsLatest(seq uint64) bool {
	return d.seq.Load() == seq
}

// Dispatch performs one search round trip and returns its single terminal outcome.
// It never retries; ctx cancellation is reported as a transport failure.
func (d *Dispatcher) Dispatch(ctx context.Context, selection models.FilterRequest, searchTerm string) Outcome {
	return d.dispatch(ctx, d.Next(), selection, searchTerm)
}

func (d *Dispatcher) dispatch(ctx context.Context, seq uint64, selection models.FilterRequest, searchTerm string) Outcome {
	payload := selection
	payload.SearchTerm = searchTerm

	d.logger.Debug("dispatching search",
		zap.Uint64("seq", seq),
		zap.String("department", payload.Department),
		zap.String("course", payload.Course),
		zap.String("year_of_passing", payload.YearOfPassing),
	)

	start := time.Now()
	cards, err := d.roundTrip(ctx, payload)
	d.observe(err, time.Since(start))
	if err != nil {
		return Outcome{Seq: seq, Err: err}
	}
	return Outcome{Seq: seq, Cards: cards}
}

func (d *Dispatcher) observe(err error, elapsed time.Duration) {
	if d.duration == nil {
		return
	}
	result := FailureKind(err)
	if result == "" {
		result = "ok"
	}
	d.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (d *Dispatcher) roundTrip(ctx context.Context, payload models.FilterRequest) ([]models.Card, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	return decodeCards(raw)
}

func decodeCards(raw []byte) ([]models.Card, error) {
	result, err := cardListValidator.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(errs, "; "))
	}

	cards := []models.Card{}
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return cards, nil
}
