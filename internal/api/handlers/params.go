package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/oszuidwest/zwfm-crudread/internal/apperrors"
	"github.com/oszuidwest/zwfm-crudread/internal/listread"
)

// readBody is the JSON form of a read request. Numbers may arrive as JSON
// numbers or strings; sort may be a compact string or a key→direction object.
type readBody struct {
	Page      any             `json:"page"`
	Limit     any             `json:"limit"`
	Search    string          `json:"search"`
	Filter    string          `json:"filter"`
	Sort      json.RawMessage `json:"sort"`
	SortOrder []string        `json:"sort_order"`
}

// bindReadRequest reads untrusted read parameters from the query string, a
// POST form or a JSON body. Unusable numbers fall back to defaults rather than
// failing; only a malformed body is an error, reported as invalid input.
func bindReadRequest(c *gin.Context) (listread.Request, error) {
	if c.Request.Method != http.MethodGet && c.ContentType() == binding.MIMEJSON {
		return bindJSONRequest(c)
	}

	param := c.Query
	sortMap := c.QueryMap("sort")
	sortKeys := sortKeysInOrder(c.Request.URL.RawQuery)
	sortOrder := c.QueryArray("sort_order[]")

	if c.Request.Method == http.MethodPost {
		// The encoded body is kept before gin parses it; form maps lose key order.
		var rawForm string
		if c.ContentType() == binding.MIMEPOSTForm {
			body, err := peekBody(c)
			if err != nil {
				return listread.Request{}, apperrors.InvalidInput("invalid form body").Wrap(err)
			}
			rawForm = string(body)
		}

		param = func(key string) string {
			if v, ok := c.GetPostForm(key); ok {
				return v
			}
			return c.Query(key)
		}
		if m := c.PostFormMap("sort"); len(m) > 0 {
			sortMap, sortKeys = m, sortKeysInOrder(rawForm)
		}
		if a := c.PostFormArray("sort_order[]"); len(a) > 0 {
			sortOrder = a
		}
	}

	req := listread.Request{
		Page:   coercePage(param("page")),
		Limit:  coerceLimit(param("limit")),
		Search: firstNonEmpty(param("search"), param("filter")),
	}

	if compact := param("sort"); compact != "" {
		req.Sort = parseCompactSort(compact)
	} else if len(sortMap) > 0 {
		req.Sort = sortFromMap(sortMap, slices.Concat(sortOrder, sortKeys))
	}
	return req, nil
}

func bindJSONRequest(c *gin.Context) (listread.Request, error) {
	var body readBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return listread.Request{}, apperrors.InvalidInput("invalid JSON body").Wrap(err)
	}

	req := listread.Request{
		Page:   coercePage(jsonNumberString(body.Page)),
		Limit:  coerceLimit(jsonNumberString(body.Limit)),
		Search: firstNonEmpty(body.Search, body.Filter),
	}

	if len(body.Sort) > 0 && string(body.Sort) != "null" {
		var compact string
		if json.Unmarshal(body.Sort, &compact) == nil {
			req.Sort = parseCompactSort(compact)
			return req, nil
		}
		m, keys, err := decodeSortObject(body.Sort)
		if err != nil {
			return listread.Request{}, apperrors.InvalidField("sort", "sort must be a string or an object of key to direction").Wrap(err)
		}
		req.Sort = sortFromMap(m, slices.Concat(body.SortOrder, keys))
	}
	return req, nil
}

// peekBody reads the request body and puts it back for later parsing.
func peekBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// sortKeysInOrder returns the keys of sort[key] parameters in the order they
// appear in an encoded query or form body.
func sortKeysInOrder(encoded string) []string {
	var keys []string
	for pair := range strings.SplitSeq(encoded, "&") {
		name, _, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			continue
		}
		rest, ok := strings.CutPrefix(name, "sort[")
		if !ok {
			continue
		}
		if key, _, found := strings.Cut(rest, "]"); found && key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// decodeSortObject decodes a JSON object of key to direction, returning the
// keys in document order. A repeated key keeps its first position and its
// last value.
func decodeSortObject(raw json.RawMessage) (map[string]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("unexpected %v", tok)
	}

	m := make(map[string]string)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var dir string
		if err := dec.Decode(&dir); err != nil {
			return nil, nil, fmt.Errorf("direction of %q: %w", key, err)
		}
		if _, seen := m[key]; !seen {
			keys = append(keys, key)
		}
		m[key] = dir
	}
	return m, keys, nil
}

// coercePage returns 1 for absent or non-numeric input. Numeric values are
// kept, so zero or negative pages reach the reader.
func coercePage(s string) int {
	n, ok := parseInt(s)
	if !ok {
		return listread.DefaultPage
	}
	return n
}

// coerceLimit returns 0 (the resource default) for absent or non-numeric
// input; the reader applies bounds.
func coerceLimit(s string) int {
	n, _ := parseInt(s)
	return n
}

// parseInt accepts any integer; values outside the int range saturate.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// jsonNumberString renders a decoded JSON scalar for coercion. Non-integral
// numbers are truncated toward zero; values outside the int range saturate.
func jsonNumberString(v any) string {
	switch n := v.(type) {
	case float64:
		switch {
		case math.IsNaN(n):
			return ""
		case n >= math.MaxInt:
			return strconv.Itoa(math.MaxInt)
		case n <= math.MinInt:
			return strconv.Itoa(math.MinInt)
		}
		return strconv.Itoa(int(n))
	case string:
		return n
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseCompactSort handles both compact sorting formats:
// - sort=created_at:desc,name:asc
// - sort=-created_at,+name (or just -created_at,name)
func parseCompactSort(s string) []listread.SortField {
	parts := strings.Split(s, ",")
	fields := make([]listread.SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var key string
		direction := listread.Asc

		switch {
		case strings.HasPrefix(part, "-"):
			key = strings.TrimPrefix(part, "-")
			direction = listread.Desc
		case strings.HasPrefix(part, "+"):
			key = strings.TrimPrefix(part, "+")
		case strings.Contains(part, ":"):
			before, after, _ := strings.Cut(part, ":")
			key = before
			direction = listread.ParseDirection(strings.TrimSpace(after))
		default:
			key = part
		}

		if key = strings.TrimSpace(key); key != "" {
			fields = append(fields, listread.SortField{Key: key, Direction: direction})
		}
	}
	return fields
}

// sortFromMap orders key→direction pairs by order first; keys not named in
// order follow in lexical order. Names in order without a direction are
// ignored, as are repeats.
func sortFromMap(m map[string]string, order []string) []listread.SortField {
	fields := make([]listread.SortField, 0, len(m))
	used := make(map[string]bool, len(m))

	for _, key := range order {
		dir, ok := m[key]
		if !ok || used[key] {
			continue
		}
		used[key] = true
		fields = append(fields, listread.SortField{Key: key, Direction: listread.ParseDirection(dir)})
	}

	rest := make([]string, 0, len(m))
	for key := range m {
		if !used[key] {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	for _, key := range rest {
		fields = append(fields, listread.SortField{Key: key, Direction: listread.ParseDirection(m[key])})
	}
	return fields
}
