// Package mirror appends ledger records to a Google Sheets spreadsheet. The
// worker uses it to keep an external, human-browsable copy of the books.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"jangbu/internal/core"
	"jangbu/internal/log"
)

type Config struct {
	SpreadsheetID   string
	ExpenseSheet    string
	IncomeSheet     string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc    *gsheet.Service
	cfg    Config
	logger *log.Logger
}

// New builds a Sheets client authenticated with service-account credentials.
// Credentials are injected configuration, never compiled in.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:    svc,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentMirror),
	}, nil
}

// AppendExpense writes one expense row and returns the cell reference.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	row := []any{
		e.Date, e.Time, e.StoreName, e.Address, e.Amount,
		string(e.Category), e.Reason, e.ImageURL,
	}
	ref, err := c.appendRow(ctx, c.cfg.ExpenseSheet, row, "H")
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "expense mirrored",
		log.FieldRecordID, e.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

// AppendIncome writes one income row and returns the cell reference.
func (c *Client) AppendIncome(ctx context.Context, in core.Income) (string, error) {
	row := []any{
		in.Date, in.Category, in.Source, in.Amount, in.Method, in.Note,
	}
	ref, err := c.appendRow(ctx, c.cfg.IncomeSheet, row, "F")
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "income mirrored",
		log.FieldRecordID, in.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []any, lastCol string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if sheet == "" {
		return "", errors.New("sheet name not configured")
	}

	// Find the next empty row from the sheet's current height.
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", sheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:%s%d", sheet, nextRow, lastCol, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}
