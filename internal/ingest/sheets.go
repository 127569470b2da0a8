package ingest

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSource reads a spreadsheet's header row and data rows directly
// from a Google Sheets URL reference (§6a), the same service-account
// credential pattern the teacher's GoogleSheetsExecutor uses to build a
// *sheets.Service.
type SheetSource struct {
	srv *sheets.Service
}

// NewSheetSource builds a SheetSource authenticated with a service
// account's credentials JSON.
func NewSheetSource(ctx context.Context, credentialsJSON []byte) (*SheetSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetSource{srv: srv}, nil
}

// Read fetches every row of the named sheet (or the first sheet if name
// is empty) from spreadsheetID, returning the header row separately from
// the data rows so callers can pass headers to layout.Resolve directly.
func (s *SheetSource) Read(ctx context.Context, spreadsheetID, sheetName string) (headers []string, rows [][]string, err error) {
	rangeNotation := sheetName
	if rangeNotation == "" {
		rangeNotation = "A1:ZZ"
	}

	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, rangeNotation).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, fmt.Errorf("fetch spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	headers = rowToStrings(resp.Values[0])
	rows = make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		rows = append(rows, rowToStrings(raw))
	}
	return headers, rows, nil
}

func rowToStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = fmt.Sprint(v)
	}
	return out
}
