package lora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
	"github.com/OS2mo/os2mo-sub000/pkg/composables"
)

const (
	ScopeOrganisation   = "organisation/organisation"
	ScopeOrgUnit        = "organisation/organisationenhed"
	ScopeOrgFunction    = "organisation/organisationfunktion"
	ScopeUser           = "organisation/bruger"
	ScopeITSystem       = "organisation/itsystem"
	ScopeClass          = "klassifikation/klasse"
	ScopeFacet          = "klassifikation/facet"
	ScopeClassification = "klassifikation/klassifikation"
)

// Scope reads and writes one LoRa object type within a Connector's
// validity window.
type Scope struct {
	client *Client
	path   string
	window services.ValidityWindow
	opts   Options
	loader *Loader
}

func newScope(client *Client, path string, window services.ValidityWindow, opts Options) *Scope {
	s := &Scope{client: client, path: path, window: window, opts: opts}
	s.loader = NewLoader(path, s.fetch, s.windowQuery(), LoaderOptions{
		Window:        opts.BatchWindow,
		MaxBatchSize:  opts.MaxBatchSize,
		MaxConcurrent: opts.MaxConcurrentFetches,
	})
	return s
}

func (s *Scope) Path() string { return s.path }

func (s *Scope) windowQuery() url.Values {
	q := url.Values{}
	for k, v := range s.window.QueryParams() {
		q.Set(k, v)
	}
	return q
}

func (s *Scope) fetch(ctx context.Context, query url.Values) ([]json.RawMessage, error) {
	return s.client.search(ctx, s.path, query)
}

func decodeObjects(raw []json.RawMessage) ([]registration.Object, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]registration.Object, 0, len(raw))
	for _, r := range raw {
		var obj registration.Object
		if err := json.Unmarshal(r, &obj); err != nil {
			return nil, fmt.Errorf("lora: decode object: %w", err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Fetch runs filter as its own request, bypassing the coalescer.
func (s *Scope) Fetch(ctx context.Context, filter Filter) ([]registration.Object, error) {
	raw, err := s.fetch(ctx, mergeQuery(filter.Query(), s.windowQuery()))
	if err != nil {
		return nil, err
	}
	return decodeObjects(raw)
}

// Load is Fetch through the coalescer.
func (s *Scope) Load(ctx context.Context, filter Filter) ([]registration.Object, error) {
	return s.loader.Load(ctx, filter)
}

// Flush dispatches the scope's pending loads.
func (s *Scope) Flush() { s.loader.Flush() }

// Get returns the current registration of id, or nil when LoRa has none in
// the window.
func (s *Scope) Get(ctx context.Context, id uuid.UUID) (*registration.Registration, error) {
	objects, err := s.Load(ctx, ByUUID(id))
	if err != nil {
		return nil, err
	}
	for i := range objects {
		if objects[i].ID == id {
			return objects[i].Current(), nil
		}
	}
	return nil, nil
}

// GetAll pages through every object matching filter.
func (s *Scope) GetAll(ctx context.Context, filter Filter) ([]registration.Object, error) {
	pageSize := s.opts.PageSize
	if pageSize < 1 {
		pageSize = 1000
	}
	var out []registration.Object
	for offset := 0; ; offset += pageSize {
		query := mergeQuery(filter.Query(), s.windowQuery())
		query.Set(paramFirstResult, strconv.Itoa(offset))
		query.Set(paramMaxResults, strconv.Itoa(pageSize))

		raw, err := s.fetch(ctx, query)
		if err != nil {
			return nil, err
		}
		page, err := decodeObjects(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

// GetAllByUUID fetches ids in chunks, several chunks at a time. The result
// follows the chunk order.
func (s *Scope) GetAllByUUID(ctx context.Context, ids []uuid.UUID) ([]registration.Object, error) {
	chunkSize := s.opts.UUIDChunkSize
	if chunkSize < 1 {
		chunkSize = 100
	}
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += chunkSize {
		chunks = append(chunks, ids[start:min(start+chunkSize, len(ids))])
	}
	results := make([][]registration.Object, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.opts.MaxConcurrentFetches, 1))
	for i, chunk := range chunks {
		g.Go(func() error {
			objects, err := s.Fetch(gctx, ByUUID(chunk...))
			if err != nil {
				return err
			}
			results[i] = objects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []registration.Object
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Create stores reg as a new object. With id set the object is created
// under that id.
func (s *Scope) Create(ctx context.Context, reg *registration.Registration, id uuid.UUID) (uuid.UUID, error) {
	method, target := http.MethodPost, ""
	if id != uuid.Nil {
		method, target = http.MethodPut, id.String()
	}
	var resp writeResponse
	status, apiErr, err := s.client.doJSON(ctx, method, s.path, target, nil, reg, &resp)
	if err != nil {
		recordWrite(s.path, "create", "error")
		return uuid.Nil, err
	}
	if apiErr != nil {
		recordWrite(s.path, "create", "error")
		return uuid.Nil, services.ErrorFromStatus(status, apiErr.text(), nil)
	}
	recordWrite(s.path, "create", "ok")
	return resp.UUID, nil
}

// Update writes reg as a new registration of id. It returns uuid.Nil when
// LoRa does not know id, and id itself when the data would not change
// anything.
func (s *Scope) Update(ctx context.Context, reg *registration.Registration, id uuid.UUID) (uuid.UUID, error) {
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{"scope": s.path, "id": id})

	var resp writeResponse
	status, apiErr, err := s.client.doJSON(ctx, http.MethodPut, s.path, id.String(), nil, reg, &resp)
	if err != nil {
		recordWrite(s.path, "update", "error")
		return uuid.Nil, err
	}
	switch {
	case apiErr == nil:
		recordWrite(s.path, "update", "ok")
		if resp.UUID == uuid.Nil {
			return id, nil
		}
		return resp.UUID, nil
	case status == http.StatusNotFound:
		recordWrite(s.path, "update", "not_found")
		logger.Debug("update target not found")
		return uuid.Nil, nil
	case status == http.StatusBadRequest && services.IsNoopUpdateMessage(apiErr.text()):
		recordWrite(s.path, "update", "noop")
		logger.Debug("update produced no new registration")
		return id, nil
	default:
		recordWrite(s.path, "update", "error")
		return uuid.Nil, services.ErrorFromStatus(status, apiErr.text(), nil)
	}
}

// Delete removes id. It returns uuid.Nil when LoRa does not know id.
func (s *Scope) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var resp writeResponse
	status, apiErr, err := s.client.doJSON(ctx, http.MethodDelete, s.path, id.String(), nil, nil, &resp)
	if err != nil {
		recordWrite(s.path, "delete", "error")
		return uuid.Nil, err
	}
	if apiErr != nil {
		if status == http.StatusNotFound {
			recordWrite(s.path, "delete", "not_found")
			return uuid.Nil, nil
		}
		recordWrite(s.path, "delete", "error")
		return uuid.Nil, services.ErrorFromStatus(status, apiErr.text(), nil)
	}
	recordWrite(s.path, "delete", "ok")
	if resp.UUID == uuid.Nil {
		return id, nil
	}
	return resp.UUID, nil
}

// StateEffects returns the entries of state field of id that LoRa reports
// for window. It reads outside the Connector's own window.
func (s *Scope) StateEffects(ctx context.Context, id uuid.UUID, field string, window virkning.Interval) ([]registration.Effect, error) {
	query := ByUUID(id).Query()
	query.Set(paramValidFrom, window.From.String())
	query.Set(paramValidTo, window.To.String())
	query.Set(paramConsolidate, "True")

	raw, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	objects, err := decodeObjects(raw)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		if objects[i].ID != id {
			continue
		}
		effects, _ := objects[i].Current().Field(registration.Path(registration.States, field))
		return effects, nil
	}
	return nil, nil
}

var _ services.StateAccessor = (*Scope)(nil)
