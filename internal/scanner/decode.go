package scanner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```(?i:json)?")

// StripFences removes markdown code-fence markers. Text without fences is
// returned unchanged.
func StripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

var (
	errNotObject      = errors.New("reply is not a JSON object")
	errMissingSafe    = errors.New(`"safe" is missing`)
	errMissingMessage = errors.New(`"message" is missing`)
)

// Decode parses reply as a verdict object and checks each field's type:
// "safe" must be a JSON boolean and "message" a non-blank JSON string.
// Extra fields are ignored; trailing data after the object is not.
func Decode(reply string) (Result, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(reply)))

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	if fields == nil {
		return Result{}, errNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Result{}, errors.New("decode: trailing data after object")
	}

	rawSafe, ok := fields["safe"]
	if !ok {
		return Result{}, errMissingSafe
	}
	rawMsg, ok := fields["message"]
	if !ok {
		return Result{}, errMissingMessage
	}

	var res Result
	switch t := bytes.TrimSpace(rawSafe); {
	case bytes.Equal(t, []byte("true")):
		res.Safe = true
	case bytes.Equal(t, []byte("false")):
		res.Safe = false
	default:
		return Result{}, fmt.Errorf(`"safe" must be a boolean, got %s`, t)
	}

	if t := bytes.TrimSpace(rawMsg); len(t) == 0 || t[0] != '"' {
		return Result{}, fmt.Errorf(`"message" must be a string, got %s`, t)
	}
	if err := json.Unmarshal(rawMsg, &res.Message); err != nil {
		return Result{}, fmt.Errorf(`"message": %w`, err)
	}
	if strings.TrimSpace(res.Message) == "" {
		return Result{}, errors.New(`"message" is blank`)
	}
	return res, nil
}
