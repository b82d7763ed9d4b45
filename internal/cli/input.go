// Package cli is an interactive REPL over the search engine, for debugging
// and trying out searches, selections and exports by hand.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/selection"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

const helpText = `Type a query to search. Commands:
  :add <id>        select a term
  :rm <id>         deselect a term
  :sel             show the selection and related terms
  :related [k]     show up to k related terms
  :export [path]   write the selection as CSV
  :clear           empty the selection
  :q               quit`

// InputHandler reads queries and commands line by line and prints results.
type InputHandler struct {
	searcher  suggest.ISearcher
	selection *selection.Selection
	limit     int
	in        io.Reader
	out       io.Writer
	exportDir string
	now       func() time.Time
}

// NewInputHandler creates a handler on stdin/stdout that prints at most limit results.
func NewInputHandler(searcher suggest.ISearcher, limit int) *InputHandler {
	return NewInputHandlerWithIO(searcher, limit, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO creates a handler over arbitrary streams.
func NewInputHandlerWithIO(searcher suggest.ISearcher, limit int, in io.Reader, out io.Writer) *InputHandler {
	if limit < 1 {
		limit = 20
	}
	return &InputHandler{
		searcher:  searcher,
		selection: selection.New(),
		limit:     limit,
		in:        in,
		out:       out,
		exportDir: ".",
		now:       time.Now,
	}
}

// SetExportDir changes where :export writes when given no path.
func (h *InputHandler) SetExportDir(dir string) {
	h.exportDir = dir
}

// Start runs the loop until EOF or :q.
func (h *InputHandler) Start() error {
	h.printf("HPOServe CLI. %s\n", dimStyle.Render("(:help for commands, Ctrl+D to exit)"))
	reader := bufio.NewReader(h.in)

	for {
		h.printf("> ")
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := h.handleInput(line); quit {
			return nil
		}
	}
}

// handleInput runs one line and reports whether the loop should stop.
func (h *InputHandler) handleInput(line string) bool {
	if !strings.HasPrefix(line, ":") {
		h.search(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "q", "quit":
		return true
	case "help", "h":
		h.printf("%s\n", helpText)
	case "add":
		h.add(arg)
	case "rm":
		if h.selection.Deselect(arg) {
			h.printf("Removed %s\n", idStyle.Render(arg))
			h.showRelated(0)
		} else {
			log.Warnf("%s is not selected", arg)
		}
	case "sel":
		h.showSelection()
		h.showRelated(0)
	case "related":
		k := 0
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				log.Errorf("Invalid count: %s", arg)
				return false
			}
			k = n
		}
		h.showRelated(k)
	case "export":
		h.export(arg)
	case "clear":
		h.selection.Clear()
		h.printf("Selection cleared\n")
	default:
		log.Errorf("Unknown command: :%s", cmd)
	}
	return false
}

func (h *InputHandler) search(query string) {
	start := time.Now()
	matches := h.searcher.Search(query)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	if len(matches) == 0 {
		log.Warnf("No terms found for '%s'", query)
		return
	}

	shown := matches
	if len(shown) > h.limit {
		shown = shown[:h.limit]
	}
	h.printf("Found %d terms for '%s':\n", len(matches), query)
	for i, m := range shown {
		marker := " "
		if h.selection.Contains(m.ID) {
			marker = "*"
		}
		h.printf("%2d.%s %s  %s\n", i+1, marker, idStyle.Render(m.ID), m.Label)
	}
	if len(matches) > len(shown) {
		h.printf("%s\n", dimStyle.Render(fmt.Sprintf("... %d more", len(matches)-len(shown))))
	}
}

func (h *InputHandler) add(id string) {
	if id == "" {
		log.Errorf("Usage: :add <id>")
		return
	}
	term, ok := h.searcher.Term(id)
	if !ok {
		log.Errorf("Unknown term: %s", id)
		return
	}
	if !h.selection.Select(term.ID, term.Label) {
		log.Warnf("%s is already selected", term.ID)
		return
	}
	h.printf("Added %s  %s\n", idStyle.Render(term.ID), term.Label)
	h.showRelated(0)
}

func (h *InputHandler) showSelection() {
	if h.selection.Len() == 0 {
		h.printf("Selection is empty\n")
		return
	}
	h.printf("Selected (%d):\n", h.selection.Len())
	for i, item := range h.selection.Items() {
		h.printf("%2d. %s  %s\n", i+1, idStyle.Render(item.ID), item.Label)
	}
}

func (h *InputHandler) showRelated(k int) {
	related := h.searcher.Related(h.selection.IDs(), k)
	if len(related) == 0 {
		return
	}
	h.printf("Related:\n")
	for i, c := range related {
		h.printf("%2d. %s  %-40s %s\n", i+1, idStyle.Render(c.ID), c.Label, scoreStyle.Render(strconv.FormatFloat(c.Score, 'f', 3, 64)))
	}
}

func (h *InputHandler) export(path string) {
	if path == "" {
		path = filepath.Join(h.exportDir, selection.FileName(h.now()))
	}
	err := utils.WriteFileAtomic(path, func(f *os.File) error {
		return h.selection.ExportCSV(f)
	})
	if err != nil {
		if errors.Is(err, selection.ErrEmptySelection) {
			log.Warn("Nothing to export: selection is empty")
			return
		}
		log.Errorf("Export failed: %v", err)
		return
	}
	h.printf("Exported %d terms to %s\n", h.selection.Len(), path)
}

func (h *InputHandler) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}
