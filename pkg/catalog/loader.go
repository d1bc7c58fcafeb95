package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ringroad/pkg/model"
	"ringroad/pkg/request"
	"ringroad/pkg/store"
)

// Fetcher retrieves a remote catalog document.
type Fetcher interface {
	Get(ctx context.Context, u string, headers map[string]string) (*request.Response, error)
}

// Format is a catalog document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatGeoJSON
)

// DetectFormat picks the encoding from a content type or file name.
// JSON is assumed when neither says otherwise.
func DetectFormat(name, contentType string) Format {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "geo+json") {
		return FormatGeoJSON
	}
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return FormatYAML
	}
	if strings.Contains(ct, "json") {
		return FormatJSON
	}
	switch strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".geojson":
		return FormatGeoJSON
	}
	return FormatJSON
}

// Loader loads the catalog from a file or an http(s) URL.
type Loader struct {
	source   string
	fetcher  Fetcher
	cache    store.CacheStore
	onStale  func(source string)
	validate *validator.Validate
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFetcher sets the HTTP fetcher used for remote sources.
func WithFetcher(f Fetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

// WithCache keeps the last good remote document and serves it when a fetch fails.
// onStale, if not nil, is called whenever the cached copy is used.
func WithCache(c store.CacheStore, onStale func(source string)) LoaderOption {
	return func(l *Loader) {
		l.cache = c
		l.onStale = onStale
	}
}

// NewLoader creates a loader for source.
func NewLoader(source string, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:   source,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.With("component", "catalog"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the configured source.
func (l *Loader) Source() string {
	return l.source
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (l *Loader) cacheKey() string {
	return "catalog:" + l.source
}

// Load fetches and parses the catalog. Every failure is a *LoadError.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	var (
		data   []byte
		format Format
		err    error
	)

	if IsRemote(l.source) {
		data, format, err = l.fetchRemote(ctx)
	} else {
		data, err = os.ReadFile(l.source)
		format = DetectFormat(l.source, "")
	}
	if err != nil {
		return nil, &LoadError{Source: l.source, Err: err}
	}

	c, err := l.Parse(data, format)
	if err != nil {
		return nil, &LoadError{Source: l.source, Err: err}
	}
	l.logger.Info("Catalog loaded", "source", l.source, "pois", c.Len(), "route_points", len(c.route))
	return c, nil
}

func (l *Loader) fetchRemote(ctx context.Context) ([]byte, Format, error) {
	if l.fetcher == nil {
		return nil, FormatJSON, errors.New("no http fetcher configured")
	}

	resp, err := l.fetcher.Get(ctx, l.source, nil)
	if err == nil {
		format := DetectFormat(l.source, resp.ContentType)
		if l.cache != nil {
			l.storeLastGood(ctx, resp.Body, format)
		}
		return resp.Body, format, nil
	}

	if l.cache != nil && ctx.Err() == nil {
		if cached, hit := l.cache.GetCache(ctx, l.cacheKey()); hit {
			l.logger.Warn("Catalog fetch failed, using cached copy", "source", l.source, "error", err)
			if l.onStale != nil {
				l.onStale(l.source)
			}
			return cached, FormatJSON, nil
		}
	}
	return nil, FormatJSON, err
}

// storeLastGood caches the document normalized to JSON.
// Unparseable bodies are not cached; Parse reports them.
func (l *Loader) storeLastGood(ctx context.Context, body []byte, format Format) {
	doc, err := decode(body, format)
	if err != nil {
		return
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := l.cache.SetCache(ctx, l.cacheKey(), normalized); err != nil {
		l.logger.Warn("Failed to cache catalog", "source", l.source, "error", err)
	}
}

func decode(data []byte, format Format) (*model.Document, error) {
	var doc model.Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case FormatGeoJSON:
		return decodeGeoJSON(data)
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	}
	return &doc, nil
}

// Parse decodes and validates a catalog document.
func (l *Loader) Parse(data []byte, format Format) (*Catalog, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	for i, p := range doc.POIs {
		if p == nil {
			return nil, fmt.Errorf("poi #%d is empty", i)
		}
		if err := l.validate.Struct(p); err != nil {
			return nil, fmt.Errorf("poi #%d (%q): %w", i, p.Name, err)
		}
	}

	return New(doc.POIs, doc.Route)
}
