package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Prescription holds everything the rendered document shows. Callers
// assemble it from their own records; this package only draws.
type Prescription struct {
	ClinicName string
	Date       string // "2006-01-02"

	DoctorName    string
	Specialty     string
	LicenseNumber string
	DoctorPhone   string
	DoctorEmail   string

	PatientName   string
	PatientAge    int
	PatientGender string

	Medicines []MedicineLine
	Notes     string
}

// MedicineLine is one row of the medicines table.
type MedicineLine struct {
	Name      string
	Dosage    string
	Frequency string
	Duration  string
}

// RenderPrescription draws a one-page A4 prescription and returns the PDF
// bytes: clinic header, doctor and patient grid, medicines table, free-text
// notes, signature line and a dispensing disclaimer.
func RenderPrescription(p Prescription) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Prescription - %s", p.PatientName), false)
	doc.AddPage()

	// Header
	doc.SetFont("Helvetica", "B", 20)
	doc.SetTextColor(30, 60, 120)
	doc.CellFormat(0, 12, p.ClinicName, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, 6, "Medical Prescription", "", 1, "C", false, 0, "")
	doc.Ln(2)
	doc.SetDrawColor(30, 60, 120)
	doc.SetLineWidth(0.6)
	x, y := doc.GetXY()
	doc.Line(10, y, 200, y)
	doc.SetXY(x, y+4)

	// Doctor / patient grid
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(95, 7, "Prescribing Doctor", "", 0, "L", false, 0, "")
	doc.CellFormat(95, 7, "Patient", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)

	left := [][2]string{
		{"Name", "Dr. " + p.DoctorName},
		{"Specialty", p.Specialty},
		{"License", p.LicenseNumber},
		{"Contact", p.DoctorPhone},
	}
	right := [][2]string{
		{"Name", p.PatientName},
		{"Age", fmt.Sprintf("%d", p.PatientAge)},
		{"Gender", p.PatientGender},
		{"Date", p.Date},
	}
	for i := range left {
		doc.CellFormat(95, 6, left[i][0]+": "+left[i][1], "", 0, "L", false, 0, "")
		doc.CellFormat(95, 6, right[i][0]+": "+right[i][1], "", 1, "L", false, 0, "")
	}
	doc.Ln(6)

	// Medicines table
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 7, "Rx", "", 1, "L", false, 0, "")
	doc.SetFillColor(30, 60, 120)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 10)
	widths := []float64{8, 62, 40, 40, 40}
	headers := []string{"#", "Medicine", "Dosage", "Frequency", "Duration"}
	for i, htxt := range headers {
		doc.CellFormat(widths[i], 8, htxt, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 10)
	fill := false
	doc.SetFillColor(240, 244, 250)
	for i, m := range p.Medicines {
		row := []string{fmt.Sprintf("%d", i+1), m.Name, m.Dosage, m.Frequency, m.Duration}
		for j, cell := range row {
			align := "L"
			if j == 0 {
				align = "C"
			}
			doc.CellFormat(widths[j], 7, cell, "1", 0, align, fill, 0, "")
		}
		doc.Ln(-1)
		fill = !fill
	}
	doc.Ln(6)

	// Notes
	if p.Notes != "" {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(0, 7, "Notes", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, p.Notes, "", "L", false)
		doc.Ln(4)
	}

	// Signature
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(95, 6, "", "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, "_______________________________", "", 1, "C", false, 0, "")
	doc.CellFormat(95, 6, "", "", 0, "L", false, 0, "")
	doc.CellFormat(95, 6, "Dr. "+p.DoctorName+", "+p.LicenseNumber, "", 1, "C", false, 0, "")

	// Disclaimer
	doc.SetY(-30)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.MultiCell(0, 4,
		"This prescription is valid only with the prescribing doctor's signature. "+
			"Dispense exactly as written; substitutions require the doctor's approval.",
		"", "C", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render prescription pdf: %w", err)
	}
	return buf.Bytes(), nil
}
