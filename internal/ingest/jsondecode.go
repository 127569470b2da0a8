package ingest

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/layout"
)

// JSONRowDecoder extracts one tabular-shaped cell row out of a free-form
// JSON bronze-row payload (the JSON ingest shape of §6), so the rest of
// the pipeline never has to know a row arrived as JSON rather than a
// spreadsheet line. One gojq query is compiled per header, each simply
// `.header-name`, keeping the same header-driven layout.Resolve contract
// the tabular path uses.
type JSONRowDecoder struct {
	headers []string
	queries []*gojq.Code
}

// NewJSONRowDecoder compiles one gojq query per header in headers, in
// order. The compiled queries are reused across every row of a load.
func NewJSONRowDecoder(headers []string) (*JSONRowDecoder, error) {
	queries := make([]*gojq.Code, len(headers))
	for i, h := range headers {
		query, err := gojq.Parse(fmt.Sprintf(".%q", h))
		if err != nil {
			return nil, fmt.Errorf("parse field query for header %q: %w", h, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("compile field query for header %q: %w", h, err)
		}
		queries[i] = code
	}
	return &JSONRowDecoder{headers: headers, queries: queries}, nil
}

// Cells runs every compiled query against payload and returns the
// resulting cell row in header order, ready for DecodeRow. A field that
// is absent or null yields an empty cell, the same as a blank spreadsheet
// cell.
func (d *JSONRowDecoder) Cells(payload map[string]interface{}) ([]string, error) {
	cells := make([]string, len(d.queries))
	for i, code := range d.queries {
		iter := code.Run(payload)
		v, ok := iter.Next()
		if !ok {
			continue
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("evaluate field query for header %q: %w", d.headers[i], err)
		}
		cells[i] = stringifyJSONValue(v)
	}
	return cells, nil
}

// DecodeJSONRow extracts a row's cells from payload via d and decodes it
// against lay, exactly mirroring DecodeRow's tabular contract.
func (d *JSONRowDecoder) DecodeJSONRow(lay *layout.Layout, payload map[string]interface{}) (*DecodedRow, error) {
	cells, err := d.Cells(payload)
	if err != nil {
		return nil, err
	}
	return DecodeRow(lay, cells)
}

func stringifyJSONValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool, int:
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}
