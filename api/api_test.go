package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aleph-zero/stacklab/service/stacks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/require"
)

func initializeTestRouter(tb testing.TB) chi.Router {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))

	svc := stacks.NewService(stacks.NewConfig(stacks.WithMaxCapacity(1024)))
	tb.Cleanup(func() { svc.Close(context.Background()) })

	handler := NewStacksHandler(svc)
	router.Route("/stacks", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Get("/", handler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(StackContext)
			r.Get("/", handler.Get)
			r.Delete("/", handler.Delete)
			r.Post("/push", handler.Push)
			r.Post("/pop", handler.Pop)
			r.Post("/ops", handler.Ops)
		})
	})

	replay := NewReplayHandler(1024)
	router.Post("/replay", replay.Replay)
	return router
}

func do(t *testing.T, server *httptest.Server, method, path string, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func createStack(t *testing.T, server *httptest.Server, variant string, capacity int) stacks.Info {
	t.Helper()
	status, body := do(t, server, http.MethodPost, "/stacks", fmt.Sprintf(`{"variant":%q,"capacity":%d}`, variant, capacity))
	require.Equal(t, http.StatusCreated, status, string(body))

	var info stacks.Info
	require.NoError(t, json.Unmarshal(body, &info))
	return info
}

func TestStacksHandler_PushPop(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(t))
	defer server.Close()

	for _, variant := range []string{"manual", "managed"} {
		t.Run(variant, func(t *testing.T) {
			info := createStack(t, server, variant, 2)
			require.Equal(t, 2, info.Capacity)
			require.Equal(t, variant, info.Variant.String())

			path := "/stacks/" + info.ID
			for _, v := range []int{1, 2} {
				status, body := do(t, server, http.MethodPost, path+"/push", fmt.Sprintf(`{"value":%d}`, v))
				require.Equal(t, http.StatusOK, status, string(body))
			}

			status, body := do(t, server, http.MethodPost, path+"/push", `{"value":3}`)
			require.Equal(t, http.StatusConflict, status, string(body))

			status, body = do(t, server, http.MethodPost, path+"/pop", "")
			require.Equal(t, http.StatusOK, status)
			require.JSONEq(t, `{"value":2,"present":true,"len":1}`, string(body))

			status, body = do(t, server, http.MethodPost, path+"/pop", "")
			require.Equal(t, http.StatusOK, status)
			require.JSONEq(t, `{"value":1,"present":true,"len":0}`, string(body))

			status, body = do(t, server, http.MethodPost, path+"/pop", "")
			require.Equal(t, http.StatusOK, status)
			require.JSONEq(t, `{"present":false,"len":0}`, string(body))

			status, _ = do(t, server, http.MethodDelete, path, "")
			require.Equal(t, http.StatusNoContent, status)

			status, _ = do(t, server, http.MethodGet, path, "")
			require.Equal(t, http.StatusNotFound, status)
		})
	}
}

func TestStacksHandler_CreateInvalid(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(t))
	defer server.Close()

	tests := []struct {
		name string
		body string
	}{
		{"missing variant", `{"capacity":3}`},
		{"missing capacity", `{"variant":"manual"}`},
		{"unknown variant", `{"variant":"ring","capacity":3}`},
		{"negative capacity", `{"variant":"manual","capacity":-1}`},
		{"capacity above maximum", `{"variant":"managed","capacity":4096}`},
		{"not json", `capacity=3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, server, http.MethodPost, "/stacks", tt.body)
			require.Equal(t, http.StatusBadRequest, status, string(body))
		})
	}
}

func TestStacksHandler_List(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(t))
	defer server.Close()

	a := createStack(t, server, "manual", 4)
	b := createStack(t, server, "managed", 4)

	status, body := do(t, server, http.MethodGet, "/stacks", "")
	require.Equal(t, http.StatusOK, status)

	var infos []stacks.Info
	require.NoError(t, json.Unmarshal(body, &infos))
	ids := []string{}
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	require.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestStacksHandler_Ops(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(t))
	defer server.Close()

	info := createStack(t, server, "manual", 3)
	path := "/stacks/" + info.ID + "/ops"

	status, body := do(t, server, http.MethodPost, path,
		`[{"op":"push","value":5},{"op":"push","value":6},{"op":"pop"},{"op":"pop"},{"op":"pop"}]`)
	require.Equal(t, http.StatusOK, status, string(body))
	require.JSONEq(t, `{"results":[
		{"op":"push","value":5,"len":1},
		{"op":"push","value":6,"len":2},
		{"op":"pop","value":6,"present":true,"len":1},
		{"op":"pop","value":5,"present":true,"len":0},
		{"op":"pop","len":0}
	]}`, string(body))

	status, body = do(t, server, http.MethodPost, path, "{\"op\":\"push\",\"value\":1}\n{\"op\":\"pop\"}\n")
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, server, http.MethodPost, path,
		`[{"op":"push","value":1},{"op":"push","value":2},{"op":"push","value":3},{"op":"push","value":4}]`)
	require.Equal(t, http.StatusConflict, status, string(body))
	require.Contains(t, string(body), "after 3 operations")

	status, _ = do(t, server, http.MethodPost, path, `[{"op":"peek"}]`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, server, http.MethodPost, path, `[{"op":"push"}]`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, server, http.MethodPost, "/stacks/nope/ops", `[{"op":"pop"}]`)
	require.Equal(t, http.StatusNotFound, status)
}

func TestReplayHandler_Replay(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(t))
	defer server.Close()

	status, body := do(t, server, http.MethodPost, "/replay?capacity=2", "\x01\x02\x03\xc0\xc0\xc0")
	require.Equal(t, http.StatusOK, status, string(body))
	require.JSONEq(t, `{"steps":7,"pushes":2,"skipped":1,"pops":2,"emptyPops":2,"maxLen":2,"equivalent":true,"divergence":-1}`, string(body))

	status, _ = do(t, server, http.MethodPost, "/replay?capacity=0", "\x01")
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, server, http.MethodPost, "/replay?capacity=x", "\x01")
	require.Equal(t, http.StatusBadRequest, status)
}
