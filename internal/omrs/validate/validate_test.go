package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
)

type fakeSources []string

func (f fakeSources) ReferenceSources(ctx context.Context, includeRetired bool) ([]*model.ConceptReferenceSource, error) {
	out := make([]*model.ConceptReferenceSource, 0, len(f))
	for _, name := range f {
		out = append(out, &model.ConceptReferenceSource{Name: name})
	}
	return out, nil
}

var testDir = directory.NewStatic(
	directory.Entry{Local: "SNOMED CT", OrgID: "IHTSDO", SourceID: "SNOMED-CT"},
	directory.Entry{Local: "CIEL", OrgID: "CIEL", SourceID: "CIEL"},
)

func TestBaseURL(t *testing.T) {
	u, err := BaseURL(EnvStaging)
	require.NoError(t, err)
	assert.Equal(t, "http://api.staging.openconceptlab.com/", u)

	_, err = BaseURL("qa")
	assert.ErrorIs(t, err, omrs.ErrInvalidConfig)
}

func TestCheck_ProbesRegistry(t *testing.T) {
	var auth atomic.Value
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		auth.Store(r.Header.Get("Authorization"))
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/orgs/IHTSDO/sources/SNOMED-CT/", "/orgs/CIEL/sources/CIEL/":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	v, err := New(fakeSources{"CIEL", "SNOMED CT"}, testDir, Config{BaseURL: srv.URL, Token: "secret"}, nil)
	require.NoError(t, err)

	statuses, err := v.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[1].Probed)
	assert.Equal(t, srv.URL+"/orgs/IHTSDO/sources/SNOMED-CT/", statuses[1].URL)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "Token secret", auth.Load())
}

func TestCheck_CustomHTTPClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v, err := New(fakeSources{"CIEL"}, testDir, Config{BaseURL: srv.URL, Token: "secret"}, nil)
	require.NoError(t, err)

	// The default client does not trust the test certificate.
	_, err = v.Check(context.Background())
	require.Error(t, err)

	statuses, err := v.WithHTTPClient(srv.Client()).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Probed)
}

func TestCheck_NotFoundInRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v, err := New(fakeSources{"CIEL"}, testDir, Config{BaseURL: srv.URL, Token: "secret"}, nil)
	require.NoError(t, err)

	_, err = v.Check(context.Background())
	assert.ErrorIs(t, err, omrs.ErrUnrecognizedSource)
}

func TestCheck_DirectoryMiss(t *testing.T) {
	v, err := New(fakeSources{"CIEL", "Local Lab Codes"}, testDir, Config{Env: EnvDev}, nil)
	require.NoError(t, err)

	statuses, err := v.Check(context.Background())
	assert.ErrorIs(t, err, omrs.ErrUnrecognizedSource)
	assert.Len(t, statuses, 1, "sources before the failure are reported")
}

func TestCheck_NoTokenSkipsProbe(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	v, err := New(fakeSources{"CIEL"}, testDir, Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	statuses, err := v.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Probed)
	assert.Zero(t, hits.Load())
}

func TestCheck_TransportErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	v, err := New(fakeSources{"CIEL"}, testDir, Config{BaseURL: url, Token: "secret"}, nil)
	require.NoError(t, err)

	_, err = v.Check(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, omrs.ErrUnrecognizedSource)
}

func TestNew_UnknownEnvironment(t *testing.T) {
	_, err := New(fakeSources{}, testDir, Config{Env: "qa"}, nil)
	assert.ErrorIs(t, err, omrs.ErrInvalidConfig)
}
