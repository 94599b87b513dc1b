package tribunal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		wantSlug string
		wantErr  bool
	}{
		{name: "formatted sao paulo", number: "0001234-56.2024.8.26.0100", wantSlug: "tjsp"},
		{name: "digits only federal district", number: "00012345620248010100", wantSlug: "tjdft"},
		{name: "tocantins", number: "0001234-56.2024.8.27.0001", wantSlug: "tjto"},
		{name: "unknown state court", number: "0001234-56.2024.8.28.0100", wantErr: true},
		{name: "federal justice", number: "0001234-56.2024.4.03.6100", wantErr: true},
		{name: "too short", number: "0001234-56.2024.8.26", wantErr: true},
		{name: "empty", number: "", wantErr: true},
		{name: "garbage", number: "not a process", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			court, err := Resolve(tt.number)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, court.Slug)
		})
	}
}

func TestResolveCoversAllStateCourts(t *testing.T) {
	assert.Len(t, stateCourts, 27)
	for code, court := range stateCourts {
		assert.Equal(t, code, court.Code)
	}
}

func TestEndpoint(t *testing.T) {
	url, err := Endpoint("https://api-publica.datajud.cnj.jus.br/", "0001234-56.2024.8.26.0100")
	require.NoError(t, err)
	assert.Equal(t, "https://api-publica.datajud.cnj.jus.br/api_publica_tjsp/_search", url)

	_, err = Endpoint("https://example.test", "123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescribe(t *testing.T) {
	info, ok := Describe("0001234-56.2024.8.21.0001")
	require.True(t, ok)
	assert.Equal(t, "RS", info.Initials)

	info, ok = Describe("0001234-56.2024.5.02.0001")
	require.True(t, ok)
	assert.Equal(t, "BR", info.Initials)
	assert.Equal(t, "02", info.Code)

	_, ok = Describe("0001234-56.2024.9.02.0001")
	assert.False(t, ok)
}

func TestExternalURL(t *testing.T) {
	link := ExternalURL("0001234-56.2024.8.26.0100")
	assert.Equal(t, "e-SAJ TJSP", link.Name)
	assert.Contains(t, link.URL, "dePesquisa=00012345620248260100")

	link = ExternalURL("0001234-56.2024.8.13.0100")
	assert.Equal(t, "https://www.google.com/search?q=processo+00012345620248130100", link.URL)
}
