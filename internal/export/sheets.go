// Package export appends ledger rows to a Google Sheets spreadsheet.
package export

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAppender appends rows to a fixed spreadsheet and sheet.
type SheetsAppender struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsAppender(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsAppender, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsAppender{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendRow appends one row after the existing data in the sheet.
func (a *SheetsAppender) AppendRow(ctx context.Context, row []any) error {
	valueRange := &sheets.ValueRange{
		Values: [][]any{row},
	}
	_, err := a.service.Spreadsheets.Values.
		Append(a.spreadsheetID, a.sheetName, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s!%s: %w", a.spreadsheetID, a.sheetName, err)
	}
	return nil
}
