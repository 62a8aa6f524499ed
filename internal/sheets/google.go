package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"autotasker-engine/internal/domain"
)

const spreadsheetMime = "application/vnd.google-apps.spreadsheet"

// GoogleBackend stores the tracker in Google Sheets and finds it through Drive.
type GoogleBackend struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

func NewGoogleBackend(ctx context.Context, client *http.Client) (*GoogleBackend, error) {
	ss, err := gsheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	ds, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &GoogleBackend{sheets: ss, drive: ds}, nil
}

func (g *GoogleBackend) FindByTitle(ctx context.Context, title string) (string, bool, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", driveEscape(title), spreadsheetMime)
	resp, err := g.drive.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", false, wrapAPI(err)
	}
	if len(resp.Files) == 0 {
		return "", false, nil
	}
	return resp.Files[0].Id, true, nil
}

func (g *GoogleBackend) Create(ctx context.Context, title, tab string) (string, error) {
	ss := &gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
		Sheets: []*gsheets.Sheet{
			{Properties: &gsheets.SheetProperties{Title: tab}},
		},
	}
	resp, err := g.sheets.Spreadsheets.Create(ss).Context(ctx).Do()
	if err != nil {
		return "", wrapAPI(err)
	}
	return resp.SpreadsheetId, nil
}

func (g *GoogleBackend) Update(ctx context.Context, id, rng string, values [][]string) error {
	_, err := g.sheets.Spreadsheets.Values.
		Update(id, rng, &gsheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return wrapAPI(err)
}

func (g *GoogleBackend) Append(ctx context.Context, id, rng string, values [][]string) (string, error) {
	resp, err := g.sheets.Spreadsheets.Values.
		Append(id, rng, &gsheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapAPI(err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

func (g *GoogleBackend) Read(ctx context.Context, id, rng string) ([][]string, error) {
	resp, err := g.sheets.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPI(err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, fmt.Sprint(c))
		}
		out = append(out, cells)
	}
	return out, nil
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, 0, len(values))
	for _, row := range values {
		r := make([]interface{}, 0, len(row))
		for _, c := range row {
			r = append(r, c)
		}
		out = append(out, r)
	}
	return out
}

// driveEscape quotes a value for a Drive query string literal.
func driveEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func wrapAPI(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrStoreNotFound, err)
	}
	return err
}
