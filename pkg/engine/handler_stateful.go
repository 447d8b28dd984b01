// Collection CRUD handlers.

package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/recordd/recordd/pkg/httputil"
	"github.com/recordd/recordd/pkg/stateful"
	"github.com/recordd/recordd/pkg/validation"
)

// resource is the type-erased view of a mounted collection.
type resource interface {
	// Path returns the collection path, e.g. /notes.
	Path() string
	// Summary returns the line shown on the info page.
	Summary() string
	register(router *httprouter.Router, echo bool)
}

// resourceHandler serves one Collection.
type resourceHandler[T stateful.Record[T]] struct {
	path         string
	kind         stateful.Kind[T]
	coll         *stateful.Collection[T]
	schema       *validation.Schema
	createStatus int
	now          func() time.Time
	log          *slog.Logger
}

func newResourceHandler[T stateful.Record[T]](
	path string,
	kind stateful.Kind[T],
	coll *stateful.Collection[T],
	createStatus int,
	now func() time.Time,
	log *slog.Logger,
) (*resourceHandler[T], error) {
	schema, err := validation.Compile(kind.Singular, kind.Schema)
	if err != nil {
		return nil, err
	}
	if createStatus == 0 {
		createStatus = http.StatusCreated
	}
	return &resourceHandler[T]{
		path:         path,
		kind:         kind,
		coll:         coll,
		schema:       schema,
		createStatus: createStatus,
		now:          now,
		log:          log.With("resource", path),
	}, nil
}

func (h *resourceHandler[T]) Path() string { return h.path }

func (h *resourceHandler[T]) Summary() string {
	if h.kind.Summary == nil {
		return fmt.Sprintf("%s has %d records", h.path, h.coll.Count())
	}
	return h.kind.Summary(h.coll.Count())
}

func (h *resourceHandler[T]) register(router *httprouter.Router, echo bool) {
	item := h.path + "/:id"

	router.GET(h.path, h.handleList)
	router.POST(h.path, h.handleCreate)
	router.GET(item, h.handleGet)
	router.DELETE(item, h.handleDelete)
	if h.kind.Merge != nil {
		router.PUT(item, h.handleUpdate)
	}
	if echo {
		router.POST("/mock"+h.path, h.handleEcho)
	}
}

// handleList returns every record in insertion order.
func (h *resourceHandler[T]) handleList(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, h.coll.List())
}

// handleGet returns one record. Ids that are not integers cannot be stored,
// so they are reported as absent.
func (h *resourceHandler[T]) handleGet(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	raw := ps.ByName("id")
	key, err := strconv.Atoi(raw)
	if err != nil {
		httputil.WriteError(w, &stateful.NotFoundError{Kind: h.kind.Singular, ID: raw})
		return
	}

	rec, ok := h.coll.Find(key)
	if !ok {
		httputil.WriteError(w, &stateful.NotFoundError{Kind: h.kind.Singular, ID: raw})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// handleCreate validates the payload and stores a new record. Any id in
// the payload is ignored.
func (h *resourceHandler[T]) handleCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := BodyFromContext(r.Context())
	if err := h.checkShape(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if m, ok := body.valueMap(); ok {
		if clientID, has := m["id"]; has {
			h.log.Debug("ignoring client supplied id", "id", clientID)
		}
	}

	rec, err := h.kind.Decode(body.Payload(), h.now())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.coll.Insert(rec)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if h.createStatus == http.StatusNoContent {
		httputil.WriteNoContent(w)
		return
	}
	httputil.WriteJSON(w, h.createStatus, created)
}

// handleUpdate merges the payload into a stored record.
func (h *resourceHandler[T]) handleUpdate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	raw := ps.ByName("id")
	key, err := strconv.Atoi(raw)
	if err != nil {
		httputil.WriteError(w, &stateful.NotFoundError{Kind: h.kind.Singular, ID: raw})
		return
	}

	body := BodyFromContext(r.Context())
	if err := h.checkShape(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload := body.Payload()
	updated, err := h.coll.Update(key, func(current T) (T, error) {
		return h.kind.Merge(current, payload)
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// handleDelete removes a record. The response is 204 whether or not the id
// was stored; the collection observer logs absent ids.
func (h *resourceHandler[T]) handleDelete(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	raw := ps.ByName("id")
	key, err := strconv.Atoi(raw)
	if err != nil {
		h.log.Info("delete of non-numeric id", "id", raw)
		httputil.WriteNoContent(w)
		return
	}

	h.coll.Delete(key)
	httputil.WriteNoContent(w)
}

// handleEcho answers with the decoded body and stores nothing.
func (h *resourceHandler[T]) handleEcho(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := BodyFromContext(r.Context())
	if body == nil || body.Value == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{})
		return
	}
	h.log.Info("echo", "body", body.Value)
	httputil.WriteJSON(w, http.StatusOK, body.Value)
}

// checkShape validates the decoded JSON body against the kind schema.
// Requests without a JSON body pass; required fields are checked later.
func (h *resourceHandler[T]) checkShape(body *RequestBody) error {
	if body == nil || body.Value == nil {
		return nil
	}
	return h.schema.Validate(body.Value)
}
