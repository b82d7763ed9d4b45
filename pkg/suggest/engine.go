package suggest

import (
	"unicode/utf8"

	"github.com/bastiangx/hposerve/internal/metrics"
	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/charmbracelet/log"
)

// Options configures an Engine.
type Options struct {
	Search       ontology.SearchOptions
	RelatedLimit int
	CacheSize    int
}

// DefaultOptions mirrors the defaults of the config package.
func DefaultOptions() Options {
	return Options{
		Search:       ontology.DefaultSearchOptions(),
		RelatedLimit: DefaultRelatedLimit,
		CacheSize:    512,
	}
}

// Engine binds one immutable index to the ranker and a search cache.
// It is safe for concurrent use.
type Engine struct {
	index    *ontology.Index
	hotCache *HotCache
	opts     Options
}

var _ ISearcher = (*Engine)(nil)

// NewEngine wraps idx. A nil index behaves as an empty one.
func NewEngine(idx *ontology.Index, opts Options) *Engine {
	if idx == nil {
		idx = ontology.Build(nil)
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = DefaultRelatedLimit
	}
	if opts.Search.MinQueryLen <= 0 {
		opts.Search.MinQueryLen = ontology.DefaultMinQueryLen
	}
	if opts.Search.MaxResults <= 0 {
		opts.Search.MaxResults = ontology.DefaultMaxResults
	}

	stats := idx.Stats()
	metrics.RecordIndex(stats.Terms, stats.Neighbors)

	return &Engine{
		index:    idx,
		hotCache: NewHotCache(opts.CacheSize),
		opts:     opts,
	}
}

// Index returns the wrapped index.
func (e *Engine) Index() *ontology.Index {
	return e.index
}

// Search returns the matches for query, served from the cache when possible.
func (e *Engine) Search(query string) []ontology.Match {
	key := ontology.NormalizeQuery(query)
	if utf8.RuneCountInString(key) < e.opts.Search.MinQueryLen {
		metrics.Searches.WithLabelValues("empty").Inc()
		return []ontology.Match{}
	}

	if cached, ok := e.hotCache.Get(key); ok {
		metrics.Searches.WithLabelValues("cached").Inc()
		return cached
	}

	matches := e.index.SearchWithOptions(query, e.opts.Search)
	if len(matches) == 0 {
		metrics.Searches.WithLabelValues("empty").Inc()
	} else {
		metrics.Searches.WithLabelValues("hit").Inc()
	}

	e.hotCache.Put(key, matches)
	log.Debugf("Search '%s' matched %d terms", key, len(matches))
	return matches
}

// Related ranks the neighbors of selected.
func (e *Engine) Related(selected []string, k int) []Candidate {
	if k <= 0 {
		k = e.opts.RelatedLimit
	}
	metrics.RelatedRequests.Inc()
	return Rank(selected, e.index, k)
}

// Term looks up a term by id.
func (e *Engine) Term(id string) (*ontology.Term, bool) {
	return e.index.Get(id)
}

// Lookup returns terms whose id starts with prefix.
func (e *Engine) Lookup(prefix string, limit int) []ontology.Match {
	return e.index.LookupPrefix(prefix, limit)
}

// Stats merges index and cache statistics.
func (e *Engine) Stats() map[string]int {
	is := e.index.Stats()
	stats := map[string]int{
		"totalTerms":     is.Terms,
		"totalNeighbors": is.Neighbors,
		"totalSynonyms":  is.Synonyms,
		"droppedRecords": is.Dropped,
		"replacedIDs":    is.Replaced,
		"maxResults":     e.opts.Search.MaxResults,
		"relatedLimit":   e.opts.RelatedLimit,
	}
	for k, v := range e.hotCache.Stats() {
		stats[k] = v
	}
	return stats
}
