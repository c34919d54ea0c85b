package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a scenario document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the document format from a file extension. Anything
// that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type parseOptions struct {
	strict bool
}

// ParseOption adjusts how Parse decodes a document.
type ParseOption func(*parseOptions)

// Strict rejects documents containing fields this package does not know.
func Strict() ParseOption {
	return func(o *parseOptions) { o.strict = true }
}

// FetchTimeout bounds how long Load waits for a remote scenario.
const FetchTimeout = 30 * time.Second

// Load reads a scenario from a file path or an http(s) URL, then parses and
// validates it. Every failure is reported as a *DataError.
func Load(ctx context.Context, source string, opts ...ParseOption) (*Scenario, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, &DataError{Source: source, Err: fmt.Errorf("failed to read scenario: %w", err)}
	}

	s, err := Parse(data, FormatFromPath(source), opts...)
	if err != nil {
		var de *DataError
		if errors.As(err, &de) {
			de.Source = source
		}
		return nil, err
	}
	return s, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte, format Format, opts ...ParseOption) (*Scenario, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	var s Scenario
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(o.strict)
		if err := dec.Decode(&s); err != nil {
			return nil, &DataError{Err: fmt.Errorf("failed to decode YAML: %w", err)}
		}
	default:
		dup, err := duplicateSceneIDs(data)
		if err != nil {
			return nil, &DataError{Err: fmt.Errorf("failed to decode JSON: %w", err)}
		}
		if len(dup) > 0 {
			problems := make([]string, 0, len(dup))
			for _, id := range dup {
				problems = append(problems, fmt.Sprintf("duplicate scene id %q", id))
			}
			return nil, &DataError{Problems: problems}
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		if o.strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&s); err != nil {
			return nil, &DataError{Err: fmt.Errorf("failed to decode JSON: %w", err)}
		}
	}

	if problems := s.validate(); len(problems) > 0 {
		return nil, &DataError{Problems: problems}
	}
	s.applyDefaults()
	return &s, nil
}

// duplicateSceneIDs walks the top-level "scenes" object token by token, since
// encoding/json silently keeps the last of two equal keys.
func duplicateSceneIDs(data []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	raw, ok := top["scenes"]
	if !ok {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("scenes must be an object keyed by scene id")
	}

	seen := make(map[string]bool)
	var dup []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if seen[key] {
			dup = append(dup, key)
		}
		seen[key] = true

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return dup, nil
}
