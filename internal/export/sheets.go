package export

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsWriter appends rows to one sheet of one spreadsheet using a
// service account.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsWriter(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Closings"
	}

	svc, err := gsheet.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (w *SheetsWriter) AppendRow(ctx context.Context, values []any) error {
	rng := fmt.Sprintf("%s!A:C", w.sheetName)
	_, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rng, &gsheet.ValueRange{
		Values: [][]any{values},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", w.sheetName, err)
	}
	return nil
}

var _ RowAppender = (*SheetsWriter)(nil)
