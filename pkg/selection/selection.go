// Package selection holds a user's chosen terms and writes them out as CSV.
package selection

import "errors"

// ErrEmptySelection is returned when exporting a selection with no terms.
var ErrEmptySelection = errors.New("selection is empty")

// Item is one selected term.
type Item struct {
	ID    string `json:"id" msgpack:"id"`
	Label string `json:"label" msgpack:"label"`
}

// Selection is an ordered set of terms keyed by id. The zero value is ready to use.
// It is not safe for concurrent use; callers owning a shared one must lock around it.
type Selection struct {
	items []Item
	pos   map[string]int
}

// New returns an empty selection.
func New() *Selection {
	return &Selection{pos: make(map[string]int)}
}

// Select appends a term. It returns false if id is empty or already selected.
func (s *Selection) Select(id, label string) bool {
	if id == "" {
		return false
	}
	if s.pos == nil {
		s.pos = make(map[string]int)
	}
	if _, exists := s.pos[id]; exists {
		return false
	}
	s.pos[id] = len(s.items)
	s.items = append(s.items, Item{ID: id, Label: label})
	return true
}

// Deselect removes a term, keeping the order of the rest. It returns false if id was not selected.
func (s *Selection) Deselect(id string) bool {
	at, exists := s.pos[id]
	if !exists {
		return false
	}
	s.items = append(s.items[:at], s.items[at+1:]...)
	delete(s.pos, id)
	for i := at; i < len(s.items); i++ {
		s.pos[s.items[i].ID] = i
	}
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.pos[id]
	return ok
}

// Len returns the number of selected terms.
func (s *Selection) Len() int {
	return len(s.items)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.items))
	for i, item := range s.items {
		ids[i] = item.ID
	}
	return ids
}

// Items returns a copy of the selected terms in selection order.
func (s *Selection) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Clear drops every selected term.
func (s *Selection) Clear() {
	s.items = nil
	s.pos = make(map[string]int)
}
