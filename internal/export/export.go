// Package export writes qualified prospects to spreadsheet and CSV files.
// Enrichment labels (category, area, verification date) come from the run
// request at export time; the collection loop never sees them.
package export

import (
	"encoding/csv"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Row is one enriched export record.
type Row struct {
	BusinessName  string
	Category      string
	Area          string
	StreetAddress string
	Website       string
	OwnerName     string
	Email         string
	Phone         string
	InstagramURL  string
	FacebookURL   string
	ListingURL    string
	SourceURLs    string
	LastVerified  string
}

// xlsxColumns is the ordered spreadsheet header.
var xlsxColumns = []string{
	"BusinessName", "Category", "Suburb/Area", "StreetAddress", "Website",
	"OwnerName", "Email", "Phone", "InstagramURL", "FacebookURL",
	"GoogleMapsURL", "SourceURLs", "LastVerifiedDate",
}

// Enrich maps qualified prospects to export rows, labeling each with the
// singularized category, the leading segment of the area query, and the
// verification date.
func Enrich(prospects []model.Prospect, req model.CollectionRequest, now time.Time) []Row {
	category := singularize(req.Category)
	area := areaLabel(req.Area)
	verified := now.Format("2006-01-02")

	rows := make([]Row, 0, len(prospects))
	for _, p := range prospects {
		sources := make([]string, 0, 2)
		if p.ListingURL != "" {
			sources = append(sources, p.ListingURL)
		}
		if p.Website != "" {
			sources = append(sources, p.Website)
		}
		rows = append(rows, Row{
			BusinessName:  p.BusinessName,
			Category:      category,
			Area:          area,
			StreetAddress: p.StreetAddress,
			Website:       p.Website,
			OwnerName:     p.OwnerName,
			Email:         p.Email,
			Phone:         p.Phone,
			InstagramURL:  p.InstagramURL,
			FacebookURL:   p.FacebookURL,
			ListingURL:    p.ListingURL,
			SourceURLs:    strings.Join(sources, ";"),
			LastVerified:  verified,
		})
	}
	return rows
}

// singularize trims a trailing plural s from the category label.
func singularize(category string) string {
	return strings.TrimSuffix(strings.TrimSpace(category), "s")
}

// areaLabel keeps the leading comma segment of the area query.
func areaLabel(area string) string {
	segment, _, _ := strings.Cut(area, ",")
	return strings.TrimSpace(segment)
}

func (r Row) cells() []string {
	return []string{
		r.BusinessName, r.Category, r.Area, r.StreetAddress, r.Website,
		r.OwnerName, r.Email, r.Phone, r.InstagramURL, r.FacebookURL,
		r.ListingURL, r.SourceURLs, r.LastVerified,
	}
}

// WriteXLSX writes the full prospect sheet with a header row and columns
// sized to their content. URL columns are capped so a long address does not
// blow out the layout.
func WriteXLSX(rows []Row, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Prospects")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxColumns {
		header.AddCell().Value = col
	}

	widths := make([]int, len(xlsxColumns))
	for i, col := range xlsxColumns {
		widths[i] = len(col) + 2
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for i, value := range r.cells() {
			row.AddCell().Value = value
			w := len(value)
			if strings.Contains(xlsxColumns[i], "URL") && w > 50 {
				w = 50
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, w := range widths {
		sheet.SetColWidth(i, i, float64(w))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

// WriteSMSCSV writes a Phone,Name list of the phone-bearing rows, ready for
// an SMS campaign import.
func WriteSMSCSV(rows []Row, path string) error {
	records := [][]string{{"Phone", "Name"}}
	for _, r := range rows {
		if r.Phone == "" {
			continue
		}
		records = append(records, []string{r.Phone, r.BusinessName})
	}
	return writeCSV(records, path)
}

// WriteEmailCSV writes an Email,Name list of the email-bearing rows.
func WriteEmailCSV(rows []Row, path string) error {
	records := [][]string{{"Email", "Name"}}
	for _, r := range rows {
		if r.Email == "" {
			continue
		}
		records = append(records, []string{r.Email, r.BusinessName})
	}
	return writeCSV(records, path)
}

func writeCSV(records [][]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}
