// Package validate checks that every reference source in the relational
// store is known to the source directory and, when a token is configured,
// exists in the concept registry.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ashokraman/ocl-omrs/internal/logging"
	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
)

// Registry environments.
const (
	EnvDev        = "dev"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

var baseURLs = map[string]string{
	EnvDev:        "http://api.dev.openconceptlab.com/",
	EnvStaging:    "http://api.staging.openconceptlab.com/",
	EnvProduction: "http://api.openconceptlab.com/",
}

// Environments returns the known environment names, sorted.
func Environments() []string {
	envs := make([]string, 0, len(baseURLs))
	for env := range baseURLs {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}

// BaseURL returns the registry base URL for env.
func BaseURL(env string) (string, error) {
	u, ok := baseURLs[env]
	if !ok {
		return "", fmt.Errorf("%w: unknown environment %q (want one of %s)", omrs.ErrInvalidConfig, env, strings.Join(Environments(), ", "))
	}
	return u, nil
}

// SourceLister lists reference sources. *db.DB satisfies it.
type SourceLister interface {
	ReferenceSources(ctx context.Context, includeRetired bool) ([]*model.ConceptReferenceSource, error)
}

// Config controls the registry probe.
type Config struct {
	// BaseURL overrides the environment's base URL. It must end in "/".
	BaseURL string
	Env     string
	Token   string
	// RatePerSecond paces probes; zero or negative means unlimited.
	RatePerSecond float64
	Timeout       time.Duration
}

// Status is the outcome for one reference source.
type Status struct {
	Name     string
	OrgID    string
	SourceID string
	URL      string
	// Probed is false when no token was configured.
	Probed bool
}

// Validator runs the reference source check.
type Validator struct {
	store   SourceLister
	dir     directory.Directory
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

// New creates a Validator. A nil logger discards output.
func New(store SourceLister, dir directory.Directory, cfg Config, logger *logging.Logger) (*Validator, error) {
	base := cfg.BaseURL
	if base == "" {
		u, err := BaseURL(cfg.Env)
		if err != nil {
			return nil, err
		}
		base = u
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Validator{
		store:   store,
		dir:     dir,
		baseURL: base,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.OrNop(logger).With("component", "check-sources"),
	}, nil
}

// WithHTTPClient replaces the client used for probes.
func (v *Validator) WithHTTPClient(c *http.Client) *Validator {
	v.client = c
	return v
}

// Check validates every non-retired reference source in name order. It
// stops at the first source that fails and returns the statuses gathered
// so far.
func (v *Validator) Check(ctx context.Context) ([]Status, error) {
	sources, err := v.store.ReferenceSources(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference sources: %w", err)
	}

	statuses := make([]Status, 0, len(sources))
	for _, src := range sources {
		st, err := v.CheckSource(ctx, src.Name)
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, st)
	}

	v.logger.Info("reference sources checked", "sources", len(statuses), "probed", v.token != "")
	return statuses, nil
}

// CheckSource validates a single source by its local name.
func (v *Validator) CheckSource(ctx context.Context, name string) (Status, error) {
	st := Status{Name: name}

	orgID, sourceID, ok := v.dir.Resolve(name)
	if !ok {
		return st, &omrs.UnrecognizedSourceError{Source: name, Detail: "no entry in the source directory"}
	}
	st.OrgID, st.SourceID = orgID, sourceID
	st.URL = v.baseURL + fmt.Sprintf("orgs/%s/sources/%s/", orgID, sourceID)
	v.logger.Info("found owner in source directory", "source", sourceID, "owner", orgID)

	if v.token == "" {
		v.logger.Info("no api token provided, skipping registry check", "source", sourceID)
		return st, nil
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return st, fmt.Errorf("failed to wait for probe slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, st.URL, nil)
	if err != nil {
		return st, fmt.Errorf("failed to build request for %s: %w", st.URL, err)
	}
	req.Header.Set("Authorization", "Token "+v.token)

	resp, err := v.client.Do(req)
	if err != nil {
		return st, fmt.Errorf("failed to probe %s: %w", st.URL, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, &omrs.UnrecognizedSourceError{
			Source: name,
			Detail: fmt.Sprintf("%s not found in registry (status %d)", st.URL, resp.StatusCode),
		}
	}

	st.Probed = true
	v.logger.Info("found source in registry", "url", st.URL)
	return st, nil
}
