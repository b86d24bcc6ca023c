package emit

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names of the spreadsheet export.
const (
	EntitiesSheet      = "Entities"
	RelationshipsSheet = "Relationships"
)

var entityHeader = []string{
	"Slug", "Name", "Ticker", "Public", "Type", "Parent", "Market Cap", "Revenue", "Mentions", "Industries",
}

var relationshipHeader = []string{"Source", "Target", "Year", "Notes"}

// WriteXLSX saves the lightweight projections and the relationship list as a
// two-sheet workbook.
func WriteXLSX(path string, out *Output) error {
	f := xlsx.NewFile()

	entSheet, err := f.AddSheet(EntitiesSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add entities sheet")
	}
	addStringRow(entSheet, entityHeader)
	for _, e := range sortedEntities(out.Entities) {
		lw := Project(e)
		row := entSheet.AddRow()
		row.AddCell().SetString(lw.Slug)
		row.AddCell().SetString(lw.Name)
		row.AddCell().SetString(deref(lw.Ticker))
		row.AddCell().SetBool(lw.IsPublic)
		row.AddCell().SetString(string(lw.EntityType))
		row.AddCell().SetString(deref(lw.ParentSlug))
		addFloatCell(row, lw.MCap)
		addFloatCell(row, lw.Rev)
		row.AddCell().SetInt(lw.Mentions)
		row.AddCell().SetString(strings.Join(e.Industries, ", "))
	}

	relSheet, err := f.AddSheet(RelationshipsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add relationships sheet")
	}
	addStringRow(relSheet, relationshipHeader)
	for _, r := range out.Relationships {
		row := relSheet.AddRow()
		row.AddCell().SetString(r.Source)
		row.AddCell().SetString(r.Target)
		row.AddCell().SetInt(r.Year)
		row.AddCell().SetString(r.Notes)
	}

	return eris.Wrap(f.Save(path), "xlsx: save")
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addFloatCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
