// Package tribunal maps CNJ process numbers to the court that owns them
// and to that court's registry search endpoint.
package tribunal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/juscheck/internal/cnj"
)

// ErrNotFound is returned when no registry endpoint exists for a number,
// either because it is malformed or because its court is not mapped.
var ErrNotFound = errors.New("tribunal not found")

// stateJustice is the justice segment of state courts.
const stateJustice = "8"

// Court identifies a state court known to the registry.
type Court struct {
	// Code is the two-digit TR segment.
	Code string
	// Slug names the court's index in the registry, e.g. "tjsp".
	Slug  string
	Name  string
	State string
}

// SearchPath is the court's search path relative to the registry root.
func (c Court) SearchPath() string {
	return "/api_publica_" + c.Slug + "/_search"
}

var stateCourts = map[string]Court{
	"01": {Code: "01", Slug: "tjdft", Name: "TJDFT - Distrito Federal", State: "DF"},
	"02": {Code: "02", Slug: "tjac", Name: "TJAC - Acre", State: "AC"},
	"03": {Code: "03", Slug: "tjal", Name: "TJAL - Alagoas", State: "AL"},
	"04": {Code: "04", Slug: "tjap", Name: "TJAP - Amapá", State: "AP"},
	"05": {Code: "05", Slug: "tjam", Name: "TJAM - Amazonas", State: "AM"},
	"06": {Code: "06", Slug: "tjba", Name: "TJBA - Bahia", State: "BA"},
	"07": {Code: "07", Slug: "tjce", Name: "TJCE - Ceará", State: "CE"},
	"08": {Code: "08", Slug: "tjes", Name: "TJES - Espírito Santo", State: "ES"},
	"09": {Code: "09", Slug: "tjgo", Name: "TJGO - Goiás", State: "GO"},
	"10": {Code: "10", Slug: "tjma", Name: "TJMA - Maranhão", State: "MA"},
	"11": {Code: "11", Slug: "tjmt", Name: "TJMT - Mato Grosso", State: "MT"},
	"12": {Code: "12", Slug: "tjms", Name: "TJMS - Mato Grosso do Sul", State: "MS"},
	"13": {Code: "13", Slug: "tjmg", Name: "TJMG - Minas Gerais", State: "MG"},
	"14": {Code: "14", Slug: "tjpa", Name: "TJPA - Pará", State: "PA"},
	"15": {Code: "15", Slug: "tjpb", Name: "TJPB - Paraíba", State: "PB"},
	"16": {Code: "16", Slug: "tjpr", Name: "TJPR - Paraná", State: "PR"},
	"17": {Code: "17", Slug: "tjpe", Name: "TJPE - Pernambuco", State: "PE"},
	"18": {Code: "18", Slug: "tjpi", Name: "TJPI - Piauí", State: "PI"},
	"19": {Code: "19", Slug: "tjrj", Name: "TJRJ - Rio de Janeiro", State: "RJ"},
	"20": {Code: "20", Slug: "tjrn", Name: "TJRN - Rio Grande do Norte", State: "RN"},
	"21": {Code: "21", Slug: "tjrs", Name: "TJRS - Rio Grande do Sul", State: "RS"},
	"22": {Code: "22", Slug: "tjro", Name: "TJRO - Rondônia", State: "RO"},
	"23": {Code: "23", Slug: "tjrr", Name: "TJRR - Roraima", State: "RR"},
	"24": {Code: "24", Slug: "tjsc", Name: "TJSC - Santa Catarina", State: "SC"},
	"25": {Code: "25", Slug: "tjse", Name: "TJSE - Sergipe", State: "SE"},
	"26": {Code: "26", Slug: "tjsp", Name: "TJSP - São Paulo", State: "SP"},
	"27": {Code: "27", Slug: "tjto", Name: "TJTO - Tocantins", State: "TO"},
}

// Resolve returns the state court owning a process number. The number may be
// formatted or digits only.
func Resolve(number string) (Court, error) {
	seg, err := cnj.Split(number)
	if err != nil {
		return Court{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if seg.Justice != stateJustice {
		return Court{}, fmt.Errorf("%w: justice segment %s is not state justice", ErrNotFound, seg.Justice)
	}
	court, ok := stateCourts[seg.Court]
	if !ok {
		return Court{}, fmt.Errorf("%w: court code %s", ErrNotFound, seg.Court)
	}
	return court, nil
}

// Endpoint returns the absolute search URL for a process number under the
// given registry root.
func Endpoint(baseURL, number string) (string, error) {
	court, err := Resolve(number)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + court.SearchPath(), nil
}

// Info is display information about the court of a process.
type Info struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
}

// national groups federal, labor, electoral, military and superior courts.
var national = Info{Name: "Justiça Federal ou Superior", Initials: "BR"}

// Describe returns display information for any process number, including
// segments the registry endpoint table does not cover.
func Describe(number string) (Info, bool) {
	seg, err := cnj.Split(number)
	if err != nil {
		return Info{}, false
	}
	switch seg.Justice {
	case stateJustice:
		court, ok := stateCourts[seg.Court]
		if !ok {
			return Info{}, false
		}
		return Info{Code: court.Code, Name: court.Name, Initials: court.State}, true
	case "1", "2", "3", "4", "5", "6":
		info := national
		info.Code = seg.Court
		return info, true
	}
	return Info{}, false
}

// ExternalLink points at a public consultation page for a process.
type ExternalLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

var consultationPages = map[string]ExternalLink{
	"24": {Name: "EPROC TJSC", URL: "https://eprocwebcon.tjsc.jus.br/consulta1g/externo_controlador.php?acao=processo_consulta_publica&txtNumProcesso={proc}"},
	"21": {Name: "EPROC TJRS", URL: "https://www.tjrs.jus.br/novo/buscas-publicas/consulta-processual-unificada/?numero_processo={proc}"},
	"26": {Name: "e-SAJ TJSP", URL: "https://esaj.tjsp.jus.br/cpopg/search.do?cbPesquisa=NUMPROC&dePesquisa={proc}"},
}

// ExternalURL returns the court's public consultation page for a number, or a
// web search when the court has none mapped.
func ExternalURL(number string) ExternalLink {
	digits := cnj.Normalize(number)
	if court, err := Resolve(digits); err == nil {
		if page, ok := consultationPages[court.Code]; ok {
			page.URL = strings.ReplaceAll(page.URL, "{proc}", digits)
			return page
		}
	}
	return ExternalLink{
		Name: "Buscar no Google",
		URL:  "https://www.google.com/search?q=processo+" + digits,
	}
}
