package lora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/document"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/pkg/composables"
)

// FetchFunc runs one search and returns the raw result rows.
type FetchFunc func(ctx context.Context, query url.Values) ([]json.RawMessage, error)

type LoaderOptions struct {
	// Window is how long a batch collects calls after its first one. Zero
	// or less turns batching off: every call is dispatched on its own, and
	// only identical in-flight fetches are shared.
	Window        time.Duration
	MaxBatchSize  int
	MaxConcurrent int
}

type loadCall struct {
	ctx    context.Context
	filter Filter
	done   chan struct{}
	result []registration.Object
	err    error
}

type batch struct {
	calls []*loadCall
	timer *time.Timer
}

type row struct {
	doc    document.Value
	object registration.Object
}

// Loader coalesces concurrent loads against one scope. Calls collected in
// the same batch are grouped by the set of filter keys they use, and every
// group is served by a single fetch for the union of the requested values.
type Loader struct {
	scope string
	fetch FetchFunc
	base  url.Values
	opts  LoaderOptions

	mu      sync.Mutex
	pending *batch
	flight  singleflight.Group
}

// NewLoader returns a Loader for scope. base is added to every query.
func NewLoader(scope string, fetch FetchFunc, base url.Values, opts LoaderOptions) *Loader {
	if opts.MaxBatchSize < 1 {
		opts.MaxBatchSize = 100
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Loader{scope: scope, fetch: fetch, base: base, opts: opts}
}

// Load returns the objects matching filter. It blocks until the batch the
// call lands in has been fetched, or ctx is done. Leaving early does not
// cancel the fetch for other callers.
func (l *Loader) Load(ctx context.Context, filter Filter) ([]registration.Object, error) {
	if len(filter) == 0 {
		return nil, fmt.Errorf("lora: load on %s needs at least one filter key", l.scope)
	}
	call := &loadCall{ctx: ctx, filter: filter, done: make(chan struct{})}
	l.enqueue(call)

	select {
	case <-call.done:
		return call.result, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Flush dispatches the pending batch now.
func (l *Loader) Flush() {
	l.mu.Lock()
	b := l.pending
	l.pending = nil
	if b != nil && b.timer != nil {
		b.timer.Stop()
	}
	l.mu.Unlock()

	if b != nil {
		go l.dispatch(b)
	}
}

func (l *Loader) enqueue(call *loadCall) {
	if l.opts.Window <= 0 {
		go l.dispatch(&batch{calls: []*loadCall{call}})
		return
	}

	l.mu.Lock()
	if l.pending == nil {
		b := &batch{}
		b.timer = time.AfterFunc(l.opts.Window, func() { l.expire(b) })
		l.pending = b
	}
	l.pending.calls = append(l.pending.calls, call)

	var full *batch
	if len(l.pending.calls) >= l.opts.MaxBatchSize {
		full = l.pending
		l.pending = nil
		if full.timer != nil {
			full.timer.Stop()
		}
	}
	l.mu.Unlock()

	if full != nil {
		go l.dispatch(full)
	}
}

func (l *Loader) expire(b *batch) {
	l.mu.Lock()
	if l.pending != b {
		l.mu.Unlock()
		return
	}
	l.pending = nil
	l.mu.Unlock()

	l.dispatch(b)
}

func (l *Loader) dispatch(b *batch) {
	recordCoalesced(l.scope, len(b.calls))

	shapes := map[string][]*loadCall{}
	for _, call := range b.calls {
		shape := call.filter.shape()
		shapes[shape] = append(shapes[shape], call)
	}
	keys := make([]string, 0, len(shapes))
	for k := range shapes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var g errgroup.Group
	g.SetLimit(l.opts.MaxConcurrent)
	for _, shape := range keys {
		calls := shapes[shape]
		g.Go(func() error {
			l.serve(calls)
			return nil
		})
	}
	_ = g.Wait()
}

// serve runs the fetch for calls sharing one key set and hands every call
// its own rows.
func (l *Loader) serve(calls []*loadCall) {
	ctx := context.WithoutCancel(calls[0].ctx)
	paramKeys := calls[0].filter.Keys()

	tuples := make([]document.ParamTuple, 0, len(calls))
	for _, call := range calls {
		tuples = append(tuples, call.filter.tuple(paramKeys))
	}
	query := url.Values{}
	for k, set := range document.GroupParams(paramKeys, tuples) {
		query[k] = set.Sorted()
	}
	query = mergeQuery(query, l.base)

	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"scope": l.scope,
		"keys":  paramKeys,
		"calls": len(calls),
	})
	logger.Debug("dispatching coalesced load")

	v, err, shared := l.flight.Do(l.scope+"?"+query.Encode(), func() (any, error) {
		return l.fetchRows(ctx, query)
	})
	recordFetch(l.scope, err)
	if err != nil {
		logger.WithError(err).Warn("coalesced load failed")
		for _, call := range calls {
			call.err = err
			close(call.done)
		}
		return
	}
	if shared {
		logger.Debug("joined an in-flight fetch")
	}

	rows := v.([]row)
	searchKeys := document.NewValueSet(paramKeys...)
	items := make([]map[string][]string, len(rows))
	for i, r := range rows {
		byKey := map[string][]string{}
		for _, kv := range document.KeyValueItems(r.doc, searchKeys) {
			byKey[kv.Key] = append(byKey[kv.Key], kv.Value.String())
		}
		items[i] = byKey
	}
	for _, call := range calls {
		var matched []registration.Object
		for i, r := range rows {
			if call.filter.matches(items[i]) {
				matched = append(matched, cloneObject(r.object))
			}
		}
		call.result = matched
		close(call.done)
	}
}

func (l *Loader) fetchRows(ctx context.Context, query url.Values) ([]row, error) {
	raw, err := l.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(raw))
	for _, r := range raw {
		doc, err := document.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("lora: parse %s row: %w", l.scope, err)
		}
		var obj registration.Object
		if err := json.Unmarshal(r, &obj); err != nil {
			return nil, fmt.Errorf("lora: decode %s row: %w", l.scope, err)
		}
		rows = append(rows, row{doc: doc, object: obj})
	}
	return rows, nil
}

// cloneObject keeps callers sharing a fetch from aliasing each other's data.
func cloneObject(o registration.Object) registration.Object {
	out := registration.Object{ID: o.ID, Registrations: make([]registration.Registration, 0, len(o.Registrations))}
	for i := range o.Registrations {
		out.Registrations = append(out.Registrations, *o.Registrations[i].Clone())
	}
	return out
}
