// Package responder turns inline queries into cached voice results.
package responder

import (
	"strconv"
	"time"

	"voicebot/internal/search"
)

// Defaults mirror the Bot API inline query limits.
const (
	DefaultSearchLimit = search.DefaultLimit
	DefaultMaxResults  = 50
	DefaultEmptyCache  = time.Second
	DefaultResultCache = 300 * time.Second
)

// Searcher ranks catalog entries for a query.
type Searcher interface {
	Search(query string, limit int) []search.Match
}

// Handles resolves identifiers to acquired handles.
type Handles interface {
	Get(identifier string) (string, bool)
}

// Options overrides the default limits.
type Options struct {
	SearchLimit int
	MaxResults  int
	EmptyCache  time.Duration
	ResultCache time.Duration
}

// Result is a single inline answer.
type Result struct {
	ID         string
	Handle     string
	Label      string
	Identifier string
	Score      float64
}

// Response is the ordered answer to a query.
type Response struct {
	Results   []Result
	CacheTime time.Duration
}

// Empty reports whether the query produced nothing to show.
func (r Response) Empty() bool { return len(r.Results) == 0 }

// Responder answers inline queries.
type Responder struct {
	index   Searcher
	handles Handles
	opts    Options
}

// New builds a responder. Zero options take the defaults.
func New(index Searcher, handles Handles, opts Options) *Responder {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.EmptyCache <= 0 {
		opts.EmptyCache = DefaultEmptyCache
	}
	if opts.ResultCache <= 0 {
		opts.ResultCache = DefaultResultCache
	}
	return &Responder{index: index, handles: handles, opts: opts}
}

// Respond ranks the query and keeps only matches with an acquired handle, in
// ranking order.
func (r *Responder) Respond(query string) Response {
	matches := r.index.Search(query, r.opts.SearchLimit)
	results := make([]Result, 0, min(len(matches), r.opts.MaxResults))
	for _, m := range matches {
		if len(results) == r.opts.MaxResults {
			break
		}
		handle, ok := r.handles.Get(m.Identifier)
		if !ok {
			continue
		}
		results = append(results, Result{
			ID:         strconv.Itoa(len(results)),
			Handle:     handle,
			Label:      m.Label,
			Identifier: m.Identifier,
			Score:      m.Score,
		})
	}

	if len(results) == 0 {
		return Response{CacheTime: r.opts.EmptyCache}
	}
	return Response{Results: results, CacheTime: r.opts.ResultCache}
}
