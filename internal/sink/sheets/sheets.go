// Package sheets appends attempt rows to a Google Sheets worksheet.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/gemstone08/circle/internal/sink"
)

// Worksheets created by the sink get this grid.
const (
	newSheetRows = 1000
	newSheetCols = 20
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Config locates the spreadsheet. Without an ID the spreadsheet titled
// SpreadsheetName is looked up in Drive, and created if none exists.
type Config struct {
	SpreadsheetID   string
	SpreadsheetName string
	Worksheet       string
	CredentialsFile string
	// ClientOptions replace the credentials-file options when set.
	ClientOptions []option.ClientOption
}

// Sink implements sink.Appender. The connection is made on first use and
// retried on the next row if it fails.
type Sink struct {
	cfg Config

	mu            sync.Mutex
	svc           *gsheets.Service
	spreadsheetID string
}

// New returns a sink for cfg without contacting the API.
func New(cfg Config) *Sink {
	if cfg.Worksheet == "" {
		cfg.Worksheet = "Sheet1"
	}
	return &Sink{cfg: cfg}
}

// Append writes row below the existing data.
func (s *Sink) Append(ctx context.Context, row sink.Row) error {
	svc, id, err := s.connect(ctx)
	if err != nil {
		return err
	}
	vr := &gsheets.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err = svc.Spreadsheets.Values.Append(id, s.a1("A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append row: %w", err)
	}
	return nil
}

func (s *Sink) connect(ctx context.Context) (*gsheets.Service, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return s.svc, s.spreadsheetID, nil
	}

	opts := s.cfg.ClientOptions
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(s.cfg.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveScope),
		}
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("sheets: create service: %w", err)
	}
	id := s.cfg.SpreadsheetID
	if id == "" {
		if id, err = s.resolveByName(ctx, svc, opts); err != nil {
			return nil, "", err
		}
	}
	if err := s.ensureWorksheet(ctx, svc, id); err != nil {
		return nil, "", err
	}
	if err := s.ensureHeader(ctx, svc, id); err != nil {
		return nil, "", err
	}
	s.svc, s.spreadsheetID = svc, id
	return svc, id, nil
}

// resolveByName finds the spreadsheet titled SpreadsheetName, creating it
// when Drive has none.
func (s *Sink) resolveByName(ctx context.Context, svc *gsheets.Service, opts []option.ClientOption) (string, error) {
	name := s.cfg.SpreadsheetName
	if name == "" {
		return "", fmt.Errorf("sheets: spreadsheet ID or name is required")
	}
	dsvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("sheets: create drive service: %w", err)
	}
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", spreadsheetMimeType, escapeQuery(name))
	list, err := dsvc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: find spreadsheet %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := svc.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: create spreadsheet %q: %w", name, err)
	}
	return created.SpreadsheetId, nil
}

// escapeQuery quotes a value for a Drive search string literal.
func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

func (s *Sink) ensureWorksheet(ctx context.Context, svc *gsheets.Service, id string) error {
	ss, err := svc.Spreadsheets.Get(id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: open spreadsheet %s: %w", id, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.cfg.Worksheet {
			return nil
		}
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: s.cfg.Worksheet,
					GridProperties: &gsheets.GridProperties{
						RowCount:    newSheetRows,
						ColumnCount: newSheetCols,
					},
				},
			},
		}},
	}
	if _, err := svc.Spreadsheets.BatchUpdate(id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: add worksheet %q: %w", s.cfg.Worksheet, err)
	}
	return nil
}

// ensureHeader writes the column names when the first row is empty.
func (s *Sink) ensureHeader(ctx context.Context, svc *gsheets.Service, id string) error {
	vr, err := svc.Spreadsheets.Values.Get(id, s.a1("1:1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: read header: %w", err)
	}
	if len(vr.Values) > 0 && len(vr.Values[0]) > 0 {
		return nil
	}

	header := sink.Header()
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	_, err = svc.Spreadsheets.Values.Update(id, s.a1("A1"), &gsheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: write header: %w", err)
	}
	return nil
}

// a1 qualifies cells with the quoted worksheet name.
func (s *Sink) a1(cells string) string {
	return "'" + strings.ReplaceAll(s.cfg.Worksheet, "'", "''") + "'!" + cells
}
