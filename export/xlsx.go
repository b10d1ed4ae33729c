package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"example.com/backstage/services/bipagem/domain"
)

// Sheet names of the report workbook
const (
	SummarySheet = "Relatorio"
	NotesSheet   = "Notas"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var noteHeader = []interface{}{
	"NF", "Volume", "Volume Informado", "Destino", "Fornecedor", "Destino Final",
	"Tipo Carga", "Data", "Divergência", "Descrição", "Bipado em",
}

// FileName is the download name of a report workbook
func FileName(report domain.Report) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, report.Name)
	return fmt.Sprintf("relatorio_%s_%s_%s.xlsx", report.Date, report.Shift, strings.ReplaceAll(name, " ", "_"))
}

// ReportWorkbook renders a finalized report as an XLSX workbook
func ReportWorkbook(report domain.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, errors.Wrap(err, "failed to rename summary sheet")
	}
	if _, err := f.NewSheet(NotesSheet); err != nil {
		return nil, errors.Wrap(err, "failed to create notes sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}

	summary := [][]interface{}{
		{"Relatório", report.Name},
		{"Colaboradores", strings.Join(report.Collaborators, ", ")},
		{"Data", report.Date},
		{"Turno", string(report.Shift)},
		{"Área", string(report.Area)},
		{"Quantidade de notas", report.NoteCount},
		{"Soma de volumes", report.TotalVolume},
		{"Finalizado em", report.FinalizedAt.Format("02/01/2006 15:04:05")},
		{"Status", string(report.Status)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return nil, errors.Wrap(err, "failed to write summary row")
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, errors.Wrap(err, "failed to style summary")
	}

	if err := f.SetSheetRow(NotesSheet, "A1", &noteHeader); err != nil {
		return nil, errors.Wrap(err, "failed to write notes header")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(noteHeader))
	if err := f.SetCellStyle(NotesSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, errors.Wrap(err, "failed to style notes header")
	}

	for i, note := range report.Notes {
		row := noteRow(note)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(NotesSheet, cell, &row); err != nil {
			return nil, errors.Wrap(err, "failed to write note row")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to write workbook")
	}
	return buf, nil
}

func noteRow(note domain.ScannedLine) []interface{} {
	var informed interface{}
	var typeCode, description string
	if note.Divergence != nil {
		informed = note.Divergence.InformedVolume
		typeCode = note.Divergence.TypeCode
		description = note.Divergence.Description
	}

	return []interface{}{
		note.InvoiceNumber,
		note.Volume,
		informed,
		note.DestinationCode,
		note.Supplier,
		note.FinalDestination,
		note.CargoType,
		note.Date,
		typeCode,
		description,
		note.ScannedAt.Format("02/01/2006 15:04:05"),
	}
}
