package datajud

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/juscheck/internal/model"
)

const spNumber = "0001234-56.2024.8.26.0100"

const hitBody = `{
  "hits": {
    "total": {"value": 1, "relation": "eq"},
    "hits": [{
      "_index": "api_publica_tjsp",
      "_id": "TJSP_1",
      "_source": {
        "numeroProcesso": "00012345620248260100",
        "tribunal": "TJSP",
        "grau": "G1",
        "dataAjuizamento": "2024-01-10T00:00:00.000Z",
        "classe": {"codigo": 7, "nome": "Procedimento Comum Cível"},
        "orgaoJulgador": {"codigo": 1, "nome": "1ª Vara Cível"},
        "movimentos": [
          {"codigo": 26, "nome": "Distribuição", "dataHora": "2024-01-10T09:00:00.000Z"},
          {"codigo": 193, "dataHora": "2024-03-01T15:30:00.000Z",
           "movimentoNacional": {"descricao": "Sentença"}, "nome": "Julgamento"},
          {"codigo": 85, "dataHora": "2024-02-01T10:00:00.000Z",
           "movimentoLocal": {"descricao": "Petição"}}
        ]
      }
    }]
  }
}`

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveRegistryRequest(court, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, court+":"+outcome)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(model.DataJudConfig{
		BaseURL: srv.URL,
		APIKey:  "APIKey test-key",
		Timeout: 2 * time.Second,
	}, opts...)
}

func TestFetchSuccess(t *testing.T) {
	obs := &recordingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api_publica_tjsp/_search", r.URL.Path)
		assert.Equal(t, "APIKey test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]map[string]map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "00012345620248260100", body["query"]["match_phrase"]["numeroProcesso"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, hitBody)
	}, WithObserver(obs))

	snap, err := client.Fetch(t.Context(), spNumber)
	require.NoError(t, err)

	assert.Equal(t, "00012345620248260100", snap.Number)
	assert.Equal(t, "TJSP", snap.Court)
	assert.Equal(t, "Procedimento Comum Cível", snap.Class)
	assert.Equal(t, "1ª Vara Cível", snap.JudgingBody)
	require.NotNil(t, snap.FiledAt)
	require.Equal(t, 3, snap.Count())

	got := snap.Movements()
	assert.Equal(t, "Sentença", got[0].Description)
	assert.Equal(t, "Petição", got[1].Description)
	assert.Equal(t, "Distribuição", got[2].Description)

	assert.Equal(t, []string{"tjsp:ok"}, obs.outcomes)
}

func TestFetchUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason Reason
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantReason: ReasonStatus,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantReason: ReasonStatus,
		},
		{
			name: "no hits",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"hits":{"hits":[]}}`)
			},
			wantReason: ReasonNotFound,
		},
		{
			name: "document without movimentos",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"numeroProcesso":"00012345620248260100"}}]}}`)
			},
			wantReason: ReasonNotFound,
		},
		{
			name: "null movimentos",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"numeroProcesso":"00012345620248260100","movimentos":null}}]}}`)
			},
			wantReason: ReasonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			snap, err := client.Fetch(t.Context(), spNumber)
			assert.Nil(t, snap)
			assert.True(t, IsUnavailable(err))
			assert.Equal(t, tt.wantReason, ReasonOf(err))
		})
	}
}

func TestFetchEmptyMovimentosIsZeroMovements(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"numeroProcesso":"00012345620248260100","movimentos":[]}}]}}`)
	})

	snap, err := client.Fetch(t.Context(), spNumber)
	require.NoError(t, err)
	assert.Zero(t, snap.Count())
}

func TestFetchUnresolvedMakesNoCall(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	_, err := client.Fetch(t.Context(), "0001234-56.2024.4.03.6100")
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, ReasonUnresolved, ReasonOf(err))
	assert.False(t, called)
}

func TestFetchTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := NewClient(model.DataJudConfig{
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	})

	_, err := client.Fetch(t.Context(), spNumber)
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, ReasonTimeout, ReasonOf(err))
}

func TestFetchMalformedBodyIsNotUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"hits":`)
	})

	_, err := client.Fetch(t.Context(), spNumber)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.False(t, IsUnavailable(err))
}
