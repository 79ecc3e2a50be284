package api

import (
	"errors"
	"net/http"

	"github.com/aleph-zero/stacklab/service/stacks"
	"github.com/go-chi/render"
)

type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
	Diff           string `json:"diff,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, status int) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      err.Error(),
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(err, http.StatusBadRequest)
}

func ErrNotFound(err error) render.Renderer {
	return newErrResponse(err, http.StatusNotFound)
}

func ErrConflict(err error) render.Renderer {
	return newErrResponse(err, http.StatusConflict)
}

func ErrInternalServerError(err error) render.Renderer {
	return newErrResponse(err, http.StatusInternalServerError)
}

// ErrFromService maps a stacks service error onto its HTTP response.
func ErrFromService(err error) render.Renderer {
	switch {
	case errors.Is(err, stacks.Error{ErrorCode: stacks.NoSuchStack}):
		return ErrNotFound(err)
	case errors.Is(err, stacks.Error{ErrorCode: stacks.StackFull}):
		return ErrConflict(err)
	case errors.Is(err, stacks.Error{ErrorCode: stacks.InvalidCapacity}),
		errors.Is(err, stacks.Error{ErrorCode: stacks.InvalidVariant}):
		return ErrInvalidRequest(err)
	default:
		return ErrInternalServerError(err)
	}
}
