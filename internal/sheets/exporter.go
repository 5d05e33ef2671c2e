// Package sheets appends confirmed search results to a shared Google Sheets
// spreadsheet, one flat row per export.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// appendRange spans the eight exported columns.
const appendRange = "A:H"

var jstZone = time.FixedZone("JST", 9*60*60)

// Row is one exported result. BusinessTypeName is the display name, not the
// enum value.
type Row struct {
	BusinessTypeName   string
	Prefecture         string
	City               string
	Jurisdiction       string
	JurisdictionDetail string
	Summary            string
	GuidelineURL       string
}

// Config holds service-account credentials and the target spreadsheet.
type Config struct {
	SpreadsheetID string
	ClientEmail   string
	PrivateKey    string
}

// Complete reports whether all required settings are present.
func (c Config) Complete() bool {
	return c.SpreadsheetID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

// Exporter abstracts the spreadsheet append for testability.
type Exporter interface {
	Append(ctx context.Context, row Row) error
}

// SheetsExporter implements Exporter over the Sheets v4 API with
// service-account JWT auth.
type SheetsExporter struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	now           func() time.Time
}

// NewExporter builds the Sheets client. Private keys arriving through env
// files carry literal \n sequences, which are unescaped here.
func NewExporter(ctx context.Context, cfg Config) (*SheetsExporter, error) {
	conf := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		now:           time.Now,
	}, nil
}

// Append adds one row, timestamped in JST, to the end of the sheet.
func (e *SheetsExporter) Append(ctx context.Context, row Row) error {
	values := &sheetsapi.ValueRange{
		Values: [][]any{{
			Timestamp(e.now()),
			row.BusinessTypeName,
			row.Prefecture,
			row.City,
			row.Jurisdiction,
			row.JurisdictionDetail,
			row.Summary,
			row.GuidelineURL,
		}},
	}

	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, appendRange, values).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to spreadsheet: %w", err)
	}
	return nil
}

// Timestamp formats a moment as a JST wall-clock string for the first column.
func Timestamp(t time.Time) string {
	return t.In(jstZone).Format("2006-01-02 15:04:05")
}
