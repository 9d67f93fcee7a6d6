// Package artifacts makes the classifier and threshold files available locally
// and decodes them. Files are fetched once and then trusted forever: a cached
// file is never re-downloaded, even if the remote copy changes.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DiabScreen/internal/domain/repository"
	"DiabScreen/pkg/forest"
	xhttp "DiabScreen/pkg/http"
	applogger "DiabScreen/pkg/logger"
)

const (
	ArtifactModel     = "model"
	ArtifactThreshold = "threshold"
)

// Config locates the artifacts.
type Config struct {
	Dir           string
	ModelURL      string
	ThresholdURL  string
	ModelFile     string
	ThresholdFile string
	FetchTimeout  time.Duration
	S3Region      string
	S3Endpoint    string
}

// ModelPath returns the local model file path.
func (c Config) ModelPath() string { return filepath.Join(c.Dir, c.ModelFile) }

// ThresholdPath returns the local threshold file path.
func (c Config) ThresholdPath() string { return filepath.Join(c.Dir, c.ThresholdFile) }

// Loaded holds decoded artifacts. Model is nil when only the threshold was requested.
type Loaded struct {
	Model     *forest.Model
	Threshold float64
}

type Option func(*Provisioner)

// WithFetcher registers f for a URL scheme, replacing any default.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(p *Provisioner) {
		p.fetchers[strings.ToLower(scheme)] = f
	}
}

type Provisioner struct {
	cfg      Config
	fetchers map[string]Fetcher
	metrics  repository.Metrics
	log      *applogger.Logger
}

func NewProvisioner(cfg Config, log *applogger.Logger, metrics repository.Metrics, opts ...Option) *Provisioner {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 2 * time.Minute
	}
	web := NewHTTPFetcher(xhttp.NewClient(xhttp.WithTimeout(cfg.FetchTimeout)))
	p := &Provisioner{
		cfg: cfg,
		fetchers: map[string]Fetcher{
			"http":  web,
			"https": web,
			"file":  FileFetcher{},
			"s3":    NewS3Fetcher(cfg.S3Region, cfg.S3Endpoint),
		},
		metrics: metrics,
		log:     log.Named("artifacts"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision makes both artifacts local and loads them.
func (p *Provisioner) Provision(ctx context.Context) (*Loaded, error) {
	if err := p.EnsureLocal(ctx, p.cfg.ModelURL, p.cfg.ModelPath()); err != nil {
		return nil, err
	}
	if err := p.EnsureLocal(ctx, p.cfg.ThresholdURL, p.cfg.ThresholdPath()); err != nil {
		return nil, err
	}
	return p.Load(p.cfg.ModelPath(), p.cfg.ThresholdPath())
}

// ProvisionThreshold is Provision for deployments that score remotely and only
// need the decision threshold.
func (p *Provisioner) ProvisionThreshold(ctx context.Context) (*Loaded, error) {
	if err := p.EnsureLocal(ctx, p.cfg.ThresholdURL, p.cfg.ThresholdPath()); err != nil {
		return nil, err
	}
	th, err := LoadThreshold(p.cfg.ThresholdPath())
	if err != nil {
		return nil, err
	}
	return &Loaded{Threshold: th}, nil
}

// EnsureLocal downloads rawURL to path unless path already exists.
// The download is a single attempt written through a temp file in the same
// directory and renamed into place, so path is either absent or complete.
func (p *Provisioner) EnsureLocal(ctx context.Context, rawURL, path string) error {
	fail := func(err error) error {
		p.metrics.RecordError("artifact_fetch")
		p.log.Error("artifact fetch failed",
			applogger.String("url", redact(rawURL)),
			applogger.String("path", path),
			applogger.Error(err),
		)
		return &FetchError{URL: redact(rawURL), Path: path, Err: err}
	}

	fi, err := os.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return fail(fmt.Errorf("%s is a directory", path))
	case err == nil:
		p.log.Debug("artifact cached", applogger.String("path", path))
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fail(err)
	}

	if rawURL == "" {
		return fail(ErrNoSource)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fail(err)
	}
	fetcher, ok := p.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return fail(fmt.Errorf("%w: %q", ErrUnsupported, u.Scheme))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create dir: %w", err))
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fail(fmt.Errorf("create temp file: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	n, err := fetcher.Fetch(ctx, u, tmp)
	if err == nil && n == 0 {
		err = ErrEmpty
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}

	elapsed := time.Since(start)
	p.metrics.RecordArtifactFetch(filepath.Base(path), n, elapsed.Seconds())
	p.log.Info("artifact downloaded",
		applogger.String("url", redact(rawURL)),
		applogger.String("path", path),
		applogger.Int64("bytes", n),
		applogger.Duration("duration_ms", elapsed),
	)
	return nil
}

// Load decodes both local artifacts. Either failing is a LoadError.
func (p *Provisioner) Load(modelPath, thresholdPath string) (*Loaded, error) {
	model, err := LoadModel(modelPath)
	if err != nil {
		p.metrics.RecordError("artifact_load")
		return nil, err
	}
	th, err := LoadThreshold(thresholdPath)
	if err != nil {
		p.metrics.RecordError("artifact_load")
		return nil, err
	}
	p.log.Info("artifacts loaded",
		applogger.String("model", modelPath),
		applogger.Int("trees", len(model.Trees)),
		applogger.Float64("threshold", th),
	)
	return &Loaded{Model: model, Threshold: th}, nil
}

// LoadModel decodes a forest model file.
func LoadModel(path string) (*forest.Model, error) {
	m, err := forest.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Artifact: ArtifactModel, Path: path, Err: err}
	}
	return m, nil
}

// LoadThreshold decodes a threshold file holding either a bare JSON number or
// {"threshold": x}. The value must lie in [0,1].
func LoadThreshold(path string) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &LoadError{Artifact: ArtifactThreshold, Path: path, Err: err}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	b = bytes.TrimSpace(b)

	var th float64
	if bytes.HasPrefix(b, []byte("{")) {
		var doc struct {
			Threshold *float64 `json:"threshold"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return fail(err)
		}
		if doc.Threshold == nil {
			return fail(errors.New(`missing "threshold" key`))
		}
		th = *doc.Threshold
	} else if err := json.Unmarshal(b, &th); err != nil {
		return fail(err)
	}

	if math.IsNaN(th) || th < 0 || th > 1 {
		return fail(fmt.Errorf("threshold %v outside [0,1]", th))
	}
	return th, nil
}

// redact drops query strings, which may carry signed credentials.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	u.RawQuery = ""
	return u.Redacted()
}
