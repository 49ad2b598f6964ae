// Package importer loads contracts from occupancy report workbooks and
// opex budgets from YAML files.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/morehouse/mhouse/internal/model"
)

// Booked units sheet layout.
const (
	BookedUnitsSheet = "Booked Units"
	headerRow        = 6 // 1-based
)

// Header names mapped to contract fields.
const (
	colRoom         = "Name"
	colFloor        = "Floor"
	colSqm          = "Sqm"
	colCategory     = "Category"
	colRate         = "Rate Agreed"
	colResident     = "Residents Name"
	colWeeks        = "Weeks Booked"
	colStart        = "Start Date"
	colEnd          = "End Date"
	colValue        = "Contract Value"
	colNationality  = "Nationality"
	colUniversity   = "University"
	colSource       = "Source"
	colPaymentPlan  = "Payment Plan"
	defaultPlanName = model.PlanInstallments
)

var dateLayouts = []string{model.DateLayout, "02/01/2006", "01/02/2006", "2006-01-02 15:04:05"}

// BookedUnits is the content of a booked units sheet.
type BookedUnits struct {
	Rooms     []model.Room
	Contracts []model.Contract
	// Skipped lists rows that named a resident but could not be read.
	Skipped []string
}

// ReadBookedUnits parses the booked units sheet of an occupancy workbook.
// Rooms are de-duplicated by ID; rows without a room or resident are ignored.
func ReadBookedUnits(r io.Reader) (*BookedUnits, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(BookedUnitsSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %q sheet: %w", BookedUnitsSheet, err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("%q sheet has no header row", BookedUnitsSheet)
	}

	header := make(map[string]int)
	for i, h := range rows[headerRow-1] {
		header[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colRoom, colResident, colStart, colEnd} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%q sheet is missing column %q", BookedUnitsSheet, required)
		}
	}

	out := &BookedUnits{}
	seen := make(map[string]struct{})
	for i, row := range rows[headerRow:] {
		get := func(col string) string {
			idx, ok := header[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		roomID := get(colRoom)
		if roomID == "" {
			continue
		}
		if _, ok := seen[roomID]; !ok {
			seen[roomID] = struct{}{}
			out.Rooms = append(out.Rooms, model.Room{
				ID:         roomID,
				Floor:      get(colFloor),
				Category:   model.RoomCategory(get(colCategory)),
				Sqm:        parseAmount(get(colSqm)),
				WeeklyRate: parseAmount(get(colRate)),
			})
		}

		resident := get(colResident)
		if resident == "" {
			continue
		}
		start, errStart := parseCellDate(get(colStart))
		end, errEnd := parseCellDate(get(colEnd))
		if errStart != nil || errEnd != nil {
			out.Skipped = append(out.Skipped,
				fmt.Sprintf("row %d (%s, %s): invalid dates", headerRow+i+1, roomID, resident))
			continue
		}

		plan := model.PaymentPlan(get(colPaymentPlan))
		if plan == "" {
			plan = defaultPlanName
		}
		out.Contracts = append(out.Contracts, model.Contract{
			RoomID:       roomID,
			ResidentName: resident,
			StartDate:    start,
			EndDate:      end,
			WeeklyRate:   parseAmount(get(colRate)),
			TotalValue:   parseAmount(get(colValue)),
			WeeksBooked:  parseAmount(get(colWeeks)),
			PaymentPlan:  plan,
			Status:       model.StatusActive,
			Nationality:  get(colNationality),
			University:   get(colUniversity),
			Source:       get(colSource),
		})
	}
	return out, nil
}

// parseCellDate reads a date cell holding either an Excel serial number or
// text in one of the accepted layouts.
func parseCellDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return model.Day(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseAmount reads a number, ignoring pound signs, commas and spaces.
func parseAmount(s string) float64 {
	clean := strings.NewReplacer("£", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}
