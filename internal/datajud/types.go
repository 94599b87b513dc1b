package datajud

// searchRequest is the body of POST /api_publica_<court>/_search.
type searchRequest struct {
	Query searchQuery `json:"query"`
}

type searchQuery struct {
	MatchPhrase map[string]string `json:"match_phrase"`
}

// SearchResponse is the Elasticsearch-style envelope returned by the registry.
type SearchResponse struct {
	Took     int  `json:"took"`
	TimedOut bool `json:"timed_out"`
	Hits     Hits `json:"hits"`
}

// Hits holds the matched documents.
type Hits struct {
	Total *HitsTotal `json:"total,omitempty"`
	Hits  []Hit      `json:"hits"`
}

type HitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one matched process document.
type Hit struct {
	Index  string  `json:"_index"`
	ID     string  `json:"_id"`
	Source Process `json:"_source"`
}

// Process is the registry's view of a judicial process. Every field is
// optional; courts populate them unevenly.
type Process struct {
	NumeroProcesso  string        `json:"numeroProcesso"`
	Tribunal        string        `json:"tribunal"`
	Grau            string        `json:"grau"`
	DataAjuizamento string        `json:"dataAjuizamento"`
	Classe          *Named        `json:"classe,omitempty"`
	OrgaoJulgador   *Named        `json:"orgaoJulgador,omitempty"`
	Assuntos        []Named       `json:"assuntos,omitempty"`

	// Movimentos is nil when the field is absent or null, which the client
	// reports as unavailable. An empty list is a real zero-movement process.
	Movimentos *[]RawMovement `json:"movimentos"`
}

// Named is a coded entry with a display name.
type Named struct {
	Codigo int    `json:"codigo"`
	Nome   string `json:"nome"`
}

// RawMovement is one procedural movement as the registry returns it.
type RawMovement struct {
	Codigo            int        `json:"codigo"`
	DataHora          string     `json:"dataHora"`
	Nome              *string    `json:"nome,omitempty"`
	Descricao         *string    `json:"descricao,omitempty"`
	MovimentoNacional *Described `json:"movimentoNacional,omitempty"`
	MovimentoLocal    *Described `json:"movimentoLocal,omitempty"`
}

// Described carries a standardized or court-local movement description.
type Described struct {
	Codigo    int     `json:"codigo,omitempty"`
	Descricao *string `json:"descricao,omitempty"`
}
