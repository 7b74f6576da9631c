package ittour

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tourbot/models"
)

const rawExcerpt = 500

// normalize brings every payload shape the API is known to return into one
// JSON object: an object as is, a single-object list unwrapped, anything else
// replaced by an envelope with CodeUnknown.
func normalize(body []byte, status int) (map[string]any, bool) {
	var data any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return malformedEnvelope("Invalid JSON", fmt.Sprintf("HTTP %d, cannot decode JSON", status)), true
	}

	switch v := data.(type) {
	case map[string]any:
		return v, false
	case []any:
		if len(v) == 1 {
			if obj, ok := v[0].(map[string]any); ok {
				return obj, false
			}
		}
		return malformedEnvelope("Invalid response format", "List response"), true
	case string:
		return malformedEnvelope("Invalid response format", excerpt(v)), true
	default:
		return malformedEnvelope("Invalid response format", fmt.Sprintf("%T", v)), true
	}
}

func malformedEnvelope(msg, desc string) map[string]any {
	return map[string]any{
		"error":      msg,
		"error_desc": desc,
		"error_code": json.Number(strconv.Itoa(CodeUnknown)),
	}
}

func excerpt(s string) string {
	if r := []rune(s); len(r) > rawExcerpt {
		return string(r[:rawExcerpt])
	}
	return s
}

// errorFromEnvelope returns the structured error carried by data, or nil
// when data is a successful response.
func errorFromEnvelope(data map[string]any, status int) *UpstreamError {
	_, hasErr := data["error"]
	_, hasErrCode := data["error_code"]
	_, hasCode := data["code"]
	if !hasErr && !hasErrCode && !hasCode {
		if status != 0 && status >= 300 {
			return &UpstreamError{Code: CodeUnknown, Message: "API error", HTTPStatus: status}
		}
		return nil
	}

	nested, _ := data["error"].(map[string]any)

	code, ok := toInt(data["error_code"])
	if !ok {
		code, ok = toInt(data["code"])
	}
	if !ok && nested != nil {
		if code, ok = toInt(nested["error_code"]); !ok {
			code, ok = toInt(nested["code"])
		}
	}
	if !ok {
		code = 0
		if status != 0 && status != 200 {
			code = CodeUnknown
		}
	}

	msg := "API error"
	switch v := data["error"].(type) {
	case string:
		if v != "" {
			msg = v
		}
	case map[string]any:
		if s := firstString(v, "message", "title"); s != "" {
			msg = s
		}
	}

	desc := firstString(data, "error_desc")
	if desc == "" && nested != nil {
		desc = firstString(nested, "message")
	}

	return &UpstreamError{Code: code, Message: msg, Description: desc, HTTPStatus: status}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// decodeResult extracts offers and pagination from a successful response.
// Offers that fail to decode are skipped. Page stays zero when absent.
func decodeResult(data map[string]any) models.SearchResult {
	var res models.SearchResult
	if p, ok := toInt(data["page"]); ok && p > 0 {
		res.Page = p
	}
	res.HasMorePages = truthy(data["has_more_pages"])

	list, _ := data["offers"].([]any)
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			continue
		}
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var offer models.RawOffer
		if err := json.Unmarshal(raw, &offer); err != nil {
			continue
		}
		res.Offers = append(res.Offers, offer)
	}
	return res
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case json.Number:
		return b.String() != "0"
	case string:
		return b != "" && b != "0" && !strings.EqualFold(b, "false")
	}
	return false
}
