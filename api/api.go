package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aleph-zero/stacklab/differential"
	"github.com/aleph-zero/stacklab/service/stacks"
	"github.com/aleph-zero/stacklab/stack"
	"github.com/go-chi/chi/v5"
	log "github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
)

type contextKey string

const stackIdKey contextKey = "stackId"

/* *** Stacks API *** */

type StacksHandler struct {
	service stacks.Service
}

func NewStacksHandler(svc stacks.Service) StacksHandler {
	return StacksHandler{service: svc}
}

type CreateStackRequest struct {
	Variant  *stack.Variant `json:"variant"`
	Capacity int            `json:"capacity"`
}

func (c *CreateStackRequest) Bind(r *http.Request) error {
	if c.Variant == nil {
		return errors.New("missing required stack variant")
	}
	if c.Capacity == 0 {
		return errors.New("missing required stack capacity")
	}
	return nil
}

type StackResponse struct {
	*stacks.Info
}

func (s *StackResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h *StacksHandler) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateStackRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	info, err := h.service.Create(r.Context(), *data.Variant, data.Capacity)
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.Render(w, r, &StackResponse{info})
}

func (h *StacksHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.service.List()
	list := make([]render.Renderer, 0, len(infos))
	for _, info := range infos {
		list = append(list, &StackResponse{info})
	}
	render.RenderList(w, r, list)
}

func (h *StacksHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Get(stackId(r.Context()))
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}
	render.Render(w, r, &StackResponse{info})
}

type PushRequest struct {
	Value *int64 `json:"value"`
}

func (p *PushRequest) Bind(r *http.Request) error {
	if p.Value == nil {
		return errors.New("missing required value")
	}
	return nil
}

func (h *StacksHandler) Push(w http.ResponseWriter, r *http.Request) {
	data := &PushRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	info, err := h.service.Push(r.Context(), stackId(r.Context()), *data.Value)
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}
	render.Render(w, r, &StackResponse{info})
}

type PopResponse struct {
	*stacks.PopResult
}

func (p *PopResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h *StacksHandler) Pop(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Pop(r.Context(), stackId(r.Context()))
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}
	render.Render(w, r, &PopResponse{result})
}

func (h *StacksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), stackId(r.Context())); err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}
	render.NoContent(w, r)
}

// OpRequest is one element of a batch sent to Ops.
type OpRequest struct {
	Op    string `json:"op"`
	Value *int64 `json:"value,omitempty"`
}

type OpResult struct {
	Op      string `json:"op"`
	Value   *int64 `json:"value,omitempty"`
	Present bool   `json:"present,omitempty"`
	Len     int    `json:"len"`
}

type OpsResponse struct {
	Results []OpResult `json:"results"`
}

func (o *OpsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Ops applies a batch of push/pop operations in order. Processing stops at
// the first failing operation; operations before it stay applied.
func (h *StacksHandler) Ops(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := stackId(ctx)
	response := &OpsResponse{Results: []OpResult{}}

	var serviceErr error
	processor := func(req OpRequest) error {
		switch req.Op {
		case "push":
			if req.Value == nil {
				return errors.New("push without value")
			}
			info, err := h.service.Push(ctx, id, *req.Value)
			if err != nil {
				serviceErr = err
				return err
			}
			response.Results = append(response.Results, OpResult{Op: req.Op, Value: req.Value, Len: info.Len})
		case "pop":
			res, err := h.service.Pop(ctx, id)
			if err != nil {
				serviceErr = err
				return err
			}
			response.Results = append(response.Results, OpResult{Op: req.Op, Value: res.Value, Present: res.Present, Len: res.Len})
		default:
			return fmt.Errorf("unknown operation %q", req.Op)
		}
		return nil
	}

	if err := ProcessJsonStream[OpRequest](r, processor); err != nil {
		err = fmt.Errorf("after %d operations: %w", len(response.Results), err)
		if serviceErr != nil {
			render.Render(w, r, ErrFromService(err))
			return
		}
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	render.Render(w, r, response)
}

func StackContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if id = chi.URLParam(r, "id"); id == "" {
			render.Render(w, r, ErrInvalidRequest(errors.New("missing stack id")))
			return
		}
		ctx := context.WithValue(r.Context(), stackIdKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stackId(ctx context.Context) string {
	id, _ := ctx.Value(stackIdKey).(string)
	return id
}

/* *** Replay API *** */

const (
	defaultReplayCapacity = 256
	maxReplayBytes        = 1 << 20
)

type ReplayHandler struct {
	maxCapacity int
}

func NewReplayHandler(maxCapacity int) ReplayHandler {
	return ReplayHandler{maxCapacity: maxCapacity}
}

type ReplayResponse struct {
	differential.Summary
}

func (rr *ReplayResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Replay runs the request body through the differential harness: every byte
// becomes one push or pop applied to both stack variants.
func (h *ReplayHandler) Replay(w http.ResponseWriter, r *http.Request) {
	capacity := defaultReplayCapacity
	if s := r.URL.Query().Get("capacity"); s != "" {
		c, err := strconv.Atoi(s)
		if err != nil || c <= 0 || c > h.maxCapacity {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("capacity must be between 1 and %d", h.maxCapacity)))
			return
		}
		capacity = c
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReplayBytes))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("reading replay input: %w", err)))
		return
	}

	report, err := differential.Replay[uint8](data, capacity)
	if err != nil {
		var mismatch *differential.MismatchError
		if errors.As(err, &mismatch) {
			log.LogEntry(r.Context()).Error("Stack variants diverged", "step", mismatch.Step, "bytes", len(data))
			resp := newErrResponse(err, http.StatusConflict)
			resp.Diff = report.Unified()
			render.Render(w, r, resp)
			return
		}
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	render.Render(w, r, &ReplayResponse{report.Summary()})
}
