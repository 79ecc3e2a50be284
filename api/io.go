package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type ProcessFunc[T any] func(T) error

// ProcessJsonStream decodes the request body as either a JSON array of T or a
// stream of concatenated T objects, calling process for each one in order.
func ProcessJsonStream[T any](r *http.Request, process ProcessFunc[T]) error {
	defer r.Body.Close()

	// Peek at the first non-whitespace byte
	buf := new(bytes.Buffer)
	tee := io.TeeReader(r.Body, buf)

	first, err := firstNonSpace(tee)
	if err != nil {
		return fmt.Errorf("error reading first byte: %w", err)
	}

	// Reset the body to read from our buffer
	body := io.MultiReader(buf, r.Body)

	switch first {
	case '[':
		return processJsonArray(body, process)
	default:
		return processJsonObjects(body, process)
	}
}

func firstNonSpace(r io.Reader) (byte, error) {
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b[0], nil
	}
}

func processJsonArray[T any](reader io.Reader, process ProcessFunc[T]) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected opening [")
	}

	for decoder.More() {
		var item T
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("error decoding array item: %w", err)
		}

		if err := process(item); err != nil {
			return fmt.Errorf("error processing item: %w", err)
		}
	}

	tok, err = decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading closing token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != ']' {
		return fmt.Errorf("expected closing ]")
	}

	return nil
}

func processJsonObjects[T any](reader io.Reader, process ProcessFunc[T]) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	for {
		var item T
		if err := decoder.Decode(&item); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error decoding JSON object: %w", err)
		}

		if err := process(item); err != nil {
			return fmt.Errorf("error processing item: %w", err)
		}
	}

	return nil
}
