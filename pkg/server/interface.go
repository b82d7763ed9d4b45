/*
Package server implements msgpack IPC for the HPO term search.

The server reads msgpack maps from stdin and writes one msgpack map per
request to stdout. Logs go to stderr. The process owns a single Selection
that select/deselect mutate, so a client drives one user session.

# IPC

Every request carries an optional id, echoed back, and a cmd:

	{"id": "q1", "cmd": "search", "q": "seiz"}

The server answers with matching terms in index order, ranked from 1:

	{"id": "q1", "s": [{"i": "HP:0001250", "l": "Seizure", "r": 1}], "c": 1, "t": 145}

A blank or too short q gets an empty result, as over HTTP.

Selection changes answer with the whole selection and the related terms
recomputed for it:

	{"id": "s1", "cmd": "select", "term": "HP:0001250"}
	{"id": "s1", "status": "ok", "changed": true, "items": [...], "related": [...]}

Other commands are related (optional k), selection, clear, export, info and
health. Failures are answered with {"id", "e", "c"} where c is 400 for a bad
request, 404 for an unknown term and 500 for internal errors.

t is always the handling time in microseconds.
*/
package server

// Request is the union of every command's fields.
type Request struct {
	ID    string `msgpack:"id"`
	Cmd   string `msgpack:"cmd"`
	Query string `msgpack:"q,omitempty"`
	Term  string `msgpack:"term,omitempty"`
	K     int    `msgpack:"k,omitempty"`
	Limit int    `msgpack:"l,omitempty"`
}

// TermHit is one search result.
type TermHit struct {
	ID    string `msgpack:"i"`
	Label string `msgpack:"l"`
	Rank  uint16 `msgpack:"r"`
}

// SearchResponse answers a search.
type SearchResponse struct {
	ID        string    `msgpack:"id"`
	Results   []TermHit `msgpack:"s"`
	Count     int       `msgpack:"c"`
	TimeTaken int64     `msgpack:"t"`
}

// RelatedHit is one related term.
type RelatedHit struct {
	ID    string  `msgpack:"i"`
	Label string  `msgpack:"l"`
	Score float64 `msgpack:"sc"`
	Rank  uint16  `msgpack:"r"`
}

// RelatedResponse answers a related request.
type RelatedResponse struct {
	ID        string       `msgpack:"id"`
	Results   []RelatedHit `msgpack:"s"`
	Count     int          `msgpack:"c"`
	TimeTaken int64        `msgpack:"t"`
}

// SelectedTerm is one entry of the current selection.
type SelectedTerm struct {
	ID    string `msgpack:"i"`
	Label string `msgpack:"l"`
}

// SelectionResponse answers select, deselect, clear and selection.
type SelectionResponse struct {
	ID        string         `msgpack:"id"`
	Status    string         `msgpack:"status"`
	Changed   bool           `msgpack:"changed"`
	Items     []SelectedTerm `msgpack:"items"`
	Related   []RelatedHit   `msgpack:"related"`
	TimeTaken int64          `msgpack:"t"`
}

// ExportResponse carries the CSV export of the selection.
type ExportResponse struct {
	ID          string `msgpack:"id"`
	FileName    string `msgpack:"file"`
	ContentType string `msgpack:"type"`
	Data        string `msgpack:"data"`
	Count       int    `msgpack:"c"`
}

// InfoResponse describes the loaded dataset and engine.
type InfoResponse struct {
	ID       string         `msgpack:"id"`
	Status   string         `msgpack:"status"`
	Version  string         `msgpack:"version,omitempty"`
	Selected int            `msgpack:"selected"`
	Stats    map[string]int `msgpack:"stats"`
}

// StatusResponse is a bare acknowledgement.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
