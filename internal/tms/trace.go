package tms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func (s *system) Trace(ctx context.Context, sess *Session, pros []string) (LookupTable, error) {
	ids := distinct(pros)
	if len(ids) == 0 {
		return LookupTable{}, nil
	}

	list, err := encodeList(ids, s.cfg.Trace.ListEncoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	fields := s.cfg.withSession(map[string]string{
		s.cfg.Trace.ListField:  list,
		s.cfg.Login.GroupField: s.cfg.GroupID,
	}, sess)

	form, err := BuildPayload(s.cfg.traceSchema(), fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	resp, err := s.client.postForm(ctx, "trace", s.cfg.Endpoints.Trace, form, sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !resp.ok() {
		return nil, newResponseError(ErrUpstream, "trace", resp.status, "", resp.body)
	}

	table, err := s.decodeTable(resp.body)
	if err != nil {
		return nil, newResponseError(ErrUpstream, "trace", resp.status, err.Error(), resp.body)
	}

	s.logger.Debug("trace resolved", "requested", len(ids), "rows", len(table))
	return table, nil
}

func distinct(pros []string) []string {
	seen := make(map[string]struct{}, len(pros))
	ids := make([]string, 0, len(pros))
	for _, p := range pros {
		p = NormalizePRO(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ids = append(ids, p)
	}
	return ids
}

func encodeList(ids []string, encoding string) (string, error) {
	if encoding == ListEncodingJSON {
		data, err := json.Marshal(ids)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return strings.Join(ids, "\n"), nil
}

func (s *system) decodeTable(body []byte) (LookupTable, error) {
	if isEmptyMarker(body, s.cfg.Trace.EmptyMarkers) {
		return LookupTable{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc == nil {
		return LookupTable{}, nil
	}

	rows, ok := extractRows(doc)
	if !ok {
		return nil, fmt.Errorf("malformed response: no row collection")
	}

	table := make(LookupTable, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rec := s.decodeRecord(row)
		if rec.PRO == "" {
			continue
		}
		table[rec.PRO] = rec
	}
	return table, nil
}

func (s *system) decodeRecord(row map[string]any) Record {
	m := s.cfg.Trace.Rows
	rec := Record{
		PRO:       NormalizePRO(stringValue(row[m.PRO])),
		Stage:     strings.TrimSpace(stringValue(row[m.Stage])),
		Substatus: strings.TrimSpace(stringValue(row[m.Substatus])),
		OrderID:   strings.TrimSpace(stringValue(row[m.OrderID])),
		Location:  stringValue(row[m.Location]),
		Pickup:    stringValue(row[m.Pickup]),
		GroupID:   stringValue(row[m.GroupID]),
	}

	if rec.Stage == "" {
		rec.Stage = s.statusLabel(stringValue(row[m.StatusCode]))
	}
	return rec
}

func (s *system) statusLabel(code string) string {
	if label, ok := s.cfg.Trace.StatusCodes[strings.TrimSpace(code)]; ok {
		return label
	}
	return "Unknown"
}

// isEmptyMarker reports whether body is one of the upstream's "no results"
// strings, bare or JSON-quoted.
func isEmptyMarker(body []byte, markers []string) bool {
	text := strings.TrimSpace(string(body))
	if unquoted, err := strconv.Unquote(text); err == nil && strings.HasPrefix(text, `"`) {
		text = strings.TrimSpace(unquoted)
	}
	if text == "" {
		return false
	}
	for _, marker := range markers {
		if strings.EqualFold(text, strings.TrimSpace(marker)) {
			return true
		}
	}
	return false
}

// rowExtractor pulls the row collection out of a decoded trace response.
// The upstream has returned rows under several shapes over time; extractors
// are tried in order and the first match wins.
type rowExtractor struct {
	name    string
	extract func(doc any) ([]any, bool)
}

var rowExtractors = []rowExtractor{
	{name: "array", extract: func(doc any) ([]any, bool) {
		rows, ok := doc.([]any)
		return rows, ok
	}},
	{name: "data", extract: objectKey("data")},
	{name: "rows", extract: objectKey("rows")},
	{name: "result", extract: objectKey("result")},
}

func objectKey(key string) func(doc any) ([]any, bool) {
	return func(doc any) ([]any, bool) {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[key]
		if !ok {
			return nil, false
		}
		if v == nil {
			return []any{}, true
		}
		rows, ok := v.([]any)
		return rows, ok
	}
}

func extractRows(doc any) ([]any, bool) {
	for _, ex := range rowExtractors {
		if rows, ok := ex.extract(doc); ok {
			return rows, true
		}
	}
	return nil, false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
