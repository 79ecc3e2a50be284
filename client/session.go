package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultPrompt = "\033[31mstacklab> \033[0m "

const usage = `commands:
  new <manual|managed> <capacity>   create a stack and select it
  use <id>                          select an existing stack
  push <int>                        push onto the selected stack
  pop                               pop from the selected stack
  len                               show length and capacity
  ls                                list stacks
  drop                              release the selected stack
  exit                              leave`

type stackInfo struct {
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	Len      int    `json:"len"`
	Capacity int    `json:"capacity"`
}

type popResult struct {
	Value   *int64 `json:"value"`
	Present bool   `json:"present"`
	Len     int    `json:"len"`
}

type errResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Session holds the REPL state: the remote endpoint and the selected stack.
type Session struct {
	client   *http.Client
	endpoint string
	current  string
	out      io.Writer
}

func NewSession(client *http.Client, endpoint string, out io.Writer) *Session {
	return &Session{client: client, endpoint: endpoint, out: out}
}

func (s *Session) Current() string {
	return s.current
}

func (s *Session) prompt() string {
	if s.current == "" {
		return defaultPrompt
	}
	return fmt.Sprintf("\033[31mstacklab[%s]> \033[0m ", shortId(s.current))
}

func shortId(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Execute runs one REPL command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	tr := otel.Tracer(serviceName)
	ctx, span := tr.Start(ctx, "client."+cmd, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("stacklab.stack", s.current))

	switch cmd {
	case "help":
		fmt.Fprintln(s.out, usage)
		return nil
	case "new":
		if len(args) != 2 {
			return errors.New("usage: new <manual|managed> <capacity>")
		}
		capacity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid capacity %q", args[1])
		}
		body := map[string]any{"variant": args[0], "capacity": capacity}
		var info stackInfo
		if err := s.call(ctx, http.MethodPost, "/stacks", body, &info); err != nil {
			return err
		}
		s.current = info.ID
		fmt.Fprintf(s.out, "%s %s 0/%d\n", info.ID, info.Variant, info.Capacity)
		return nil
	case "use":
		if len(args) != 1 {
			return errors.New("usage: use <id>")
		}
		var info stackInfo
		if err := s.call(ctx, http.MethodGet, "/stacks/"+args[0], nil, &info); err != nil {
			return err
		}
		s.current = info.ID
		fmt.Fprintf(s.out, "%s %s %d/%d\n", info.ID, info.Variant, info.Len, info.Capacity)
		return nil
	case "ls":
		var infos []stackInfo
		if err := s.call(ctx, http.MethodGet, "/stacks", nil, &infos); err != nil {
			return err
		}
		for _, info := range infos {
			marker := " "
			if info.ID == s.current {
				marker = "*"
			}
			fmt.Fprintf(s.out, "%s %s %-7s %d/%d\n", marker, info.ID, info.Variant, info.Len, info.Capacity)
		}
		return nil
	}

	if s.current == "" {
		return errors.New("no stack selected, use `new` or `use` first")
	}
	path := "/stacks/" + s.current

	switch cmd {
	case "push":
		if len(args) != 1 {
			return errors.New("usage: push <int>")
		}
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[0])
		}
		var info stackInfo
		if err := s.call(ctx, http.MethodPost, path+"/push", map[string]int64{"value": v}, &info); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "len=%d\n", info.Len)
	case "pop":
		var res popResult
		if err := s.call(ctx, http.MethodPost, path+"/pop", nil, &res); err != nil {
			return err
		}
		if res.Present {
			fmt.Fprintf(s.out, "%d len=%d\n", *res.Value, res.Len)
		} else {
			fmt.Fprintf(s.out, "empty len=%d\n", res.Len)
		}
	case "len":
		var info stackInfo
		if err := s.call(ctx, http.MethodGet, path, nil, &info); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%d/%d\n", info.Len, info.Capacity)
	case "drop":
		if err := s.call(ctx, http.MethodDelete, path, nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "released %s\n", s.current)
		s.current = ""
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *Session) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var e errResponse
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.Error == "" {
			return fmt.Errorf("%s %s: %s", method, path, res.Status)
		}
		return errors.New(e.Error)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
