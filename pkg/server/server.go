package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/hposerve/internal/logger"
	"github.com/bastiangx/hposerve/internal/metrics"
	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/selection"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	codeBadRequest  = 400
	codeUnknownTerm = 404
	codeInternal    = 500

	// maxQueryLen bounds search input, longer queries are refused.
	maxQueryLen = 256
)

// Server handles msgpack IPC for one selection session
type Server struct {
	searcher  suggest.ISearcher
	selection *selection.Selection
	version   string
	reader    io.Reader
	writer    *bufio.Writer
	encoder   *msgpack.Encoder
	logger    *log.Logger
	requests  int
}

// NewServer creates a server using stdin/stdout for IPC.
// version is reported by the info command and may be empty.
func NewServer(searcher suggest.ISearcher, version string) *Server {
	return NewServerWithIO(searcher, version, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(searcher suggest.ISearcher, version string, r io.Reader, w io.Writer) *Server {
	bw := bufio.NewWriter(w)
	return &Server{
		searcher:  searcher,
		selection: selection.New(),
		version:   version,
		reader:    r,
		writer:    bw,
		encoder:   msgpack.NewEncoder(bw),
		logger:    logger.New("ipc"),
	}
}

// Start announces readiness and serves requests until the input closes.
func (s *Server) Start() error {
	s.logger.Debug("Starting IPC server")
	s.send(StatusResponse{Status: "ready"})

	decoder := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		raw, err := decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return err
		}
		s.requests++
		s.handleRaw(raw)
	}
}

// handleRaw decodes one framed message. A message that is valid msgpack but
// not a request map is answered with 400 and the stream stays in sync.
func (s *Server) handleRaw(raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", codeBadRequest)
		metrics.Requests.WithLabelValues("ipc", "invalid", strconv.Itoa(codeBadRequest)).Inc()
		return
	}

	start := time.Now()
	code := s.dispatch(req, start)
	cmd := commandLabel(req.Cmd)
	metrics.Requests.WithLabelValues("ipc", cmd, strconv.Itoa(code)).Inc()
	metrics.RequestDuration.WithLabelValues("ipc", cmd).Observe(time.Since(start).Seconds())
}

var knownCommands = map[string]bool{
	"search": true, "select": true, "deselect": true, "clear": true, "selection": true,
	"related": true, "export": true, "info": true, "health": true,
}

// commandLabel keeps client input out of metric label values.
func commandLabel(cmd string) string {
	if knownCommands[cmd] {
		return cmd
	}
	return "unknown"
}

// dispatch runs the command and returns the status code it answered with.
func (s *Server) dispatch(req Request, start time.Time) int {
	switch req.Cmd {
	case "search":
		return s.handleSearch(req, start)
	case "select":
		return s.handleSelect(req, start)
	case "deselect":
		return s.handleDeselect(req, start)
	case "clear":
		s.selection.Clear()
		return s.sendSelection(req.ID, true, start)
	case "selection":
		return s.sendSelection(req.ID, false, start)
	case "related":
		return s.handleRelated(req, start)
	case "export":
		return s.handleExport(req)
	case "info":
		s.send(InfoResponse{
			ID:       req.ID,
			Status:   "ok",
			Version:  s.version,
			Selected: s.selection.Len(),
			Stats:    s.searcher.Stats(),
		})
		return 200
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
		return 200
	case "":
		return s.sendError(req.ID, "Missing 'cmd' field", codeBadRequest)
	default:
		return s.sendError(req.ID, fmt.Sprintf("Unknown command: %s", req.Cmd), codeBadRequest)
	}
}

func (s *Server) handleSearch(req Request, start time.Time) int {
	query := strings.TrimSpace(req.Query)
	if len(query) > maxQueryLen {
		return s.sendError(req.ID, fmt.Sprintf("Query exceeds maximum length of %d bytes", maxQueryLen), codeBadRequest)
	}

	matches := s.searcher.Search(query)
	if req.Limit > 0 && req.Limit < len(matches) {
		matches = matches[:req.Limit]
	}

	ranks := utils.CreateRankList(len(matches))
	hits := make([]TermHit, len(matches))
	for i, m := range matches {
		hits[i] = TermHit{ID: m.ID, Label: m.Label, Rank: ranks[i]}
	}

	s.send(SearchResponse{
		ID:        req.ID,
		Results:   hits,
		Count:     len(hits),
		TimeTaken: time.Since(start).Microseconds(),
	})
	return 200
}

func (s *Server) handleSelect(req Request, start time.Time) int {
	if req.Term == "" {
		return s.sendError(req.ID, "Missing 'term' parameter", codeBadRequest)
	}
	term, ok := s.searcher.Term(req.Term)
	if !ok {
		return s.sendError(req.ID, fmt.Sprintf("Unknown term: %s", req.Term), codeUnknownTerm)
	}
	changed := s.selection.Select(term.ID, term.Label)
	s.logger.Debugf("Select %s changed=%v (%d selected)", term.ID, changed, s.selection.Len())
	return s.sendSelection(req.ID, changed, start)
}

func (s *Server) handleDeselect(req Request, start time.Time) int {
	if req.Term == "" {
		return s.sendError(req.ID, "Missing 'term' parameter", codeBadRequest)
	}
	changed := s.selection.Deselect(req.Term)
	return s.sendSelection(req.ID, changed, start)
}

func (s *Server) handleRelated(req Request, start time.Time) int {
	if req.K < 0 {
		return s.sendError(req.ID, "'k' must not be negative", codeBadRequest)
	}
	hits := s.related(req.K)
	s.send(RelatedResponse{
		ID:        req.ID,
		Results:   hits,
		Count:     len(hits),
		TimeTaken: time.Since(start).Microseconds(),
	})
	return 200
}

func (s *Server) handleExport(req Request) int {
	var buf bytes.Buffer
	if err := s.selection.ExportCSV(&buf); err != nil {
		if errors.Is(err, selection.ErrEmptySelection) {
			return s.sendError(req.ID, "Nothing to export: selection is empty", codeBadRequest)
		}
		s.logger.Errorf("Exporting selection: %v", err)
		return s.sendError(req.ID, "Export failed", codeInternal)
	}
	s.send(ExportResponse{
		ID:          req.ID,
		FileName:    selection.FileName(time.Now()),
		ContentType: selection.ContentType,
		Data:        buf.String(),
		Count:       s.selection.Len(),
	})
	return 200
}

// related ranks the current selection, k <= 0 uses the engine default.
func (s *Server) related(k int) []RelatedHit {
	candidates := s.searcher.Related(s.selection.IDs(), k)
	ranks := utils.CreateRankList(len(candidates))
	hits := make([]RelatedHit, len(candidates))
	for i, c := range candidates {
		hits[i] = RelatedHit{ID: c.ID, Label: c.Label, Score: c.Score, Rank: ranks[i]}
	}
	return hits
}

func (s *Server) sendSelection(id string, changed bool, start time.Time) int {
	items := s.selection.Items()
	terms := make([]SelectedTerm, len(items))
	for i, item := range items {
		terms[i] = SelectedTerm{ID: item.ID, Label: item.Label}
	}
	s.send(SelectionResponse{
		ID:        id,
		Status:    "ok",
		Changed:   changed,
		Items:     terms,
		Related:   s.related(0),
		TimeTaken: time.Since(start).Microseconds(),
	})
	return 200
}

// send encodes a response and flushes it so the client sees it immediately.
func (s *Server) send(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

// sendError answers with an error and returns its code.
func (s *Server) sendError(id, message string, code int) int {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
	return code
}
