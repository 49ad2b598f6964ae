package monday

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// Columns maps logical field names to board column IDs.
type Columns map[string]string

// DefaultColumns returns the column IDs of the More House boards.
// Keys prefixed "room." belong to the unit schedule board and "qualified."
// to the qualified leads board; the rest are on the won deals board.
func DefaultColumns() Columns {
	return Columns{
		"room.floor":       "dropdown_mkrs7zx2",
		"room.category":    "dropdown_mkrx42t8",
		"room.sqm":         "numeric_mkrxddk6",
		"room.weekly_rate": "numeric_mkrxa9hm",

		"qualified.viewing_date": "date_mkr5m8jk",
		"qualified.sign_date":    "date_mkr5cxqh",

		"unit":           "text_mktbxcap",
		"length_of_stay": "timerange_mkt9gsnr",
		"gross_income":   "formula_mks34v1y",
		"rate_agreed":    "numeric_mks2n5fp",
		"payment_plan":   "color_mks9w1p0",
		"nationality":    "country_mks9cg7q",
		"university":     "dropdown_mks9rbmv",
		"viewing_date":   "date_mks29j00",
		"sign_date":      "date_mks2y4vg",

		"booking_fee_due":  "date_mkszxxzx",
		"instalment_1_due": "date_mkszyrpe",
		"instalment_2_due": "date_mksza278",
		"instalment_3_due": "date_mkszs0a4",
		"instalment_4_due": "date_mkszsh2q",
		"instalment_5_due": "date_mkvmyxgf",

		"booking_fee_amount":  "numeric_mkvt5vhm",
		"instalment_1_amount": "numeric_mkvt5wym",
		"instalment_2_amount": "numeric_mkvtn7fe",
		"instalment_3_amount": "numeric_mkvtcr5w",
		"instalment_4_amount": "numeric_mkvtq4d7",
		"instalment_5_amount": "numeric_mkvteg65",

		"booking_fee_status":  "color_mksjjgs8",
		"instalment_1_status": "color_mksj58qp",
		"instalment_2_status": "color_mkvm35a8",
		"instalment_3_status": "color_mkvmm56g",
		"instalment_4_status": "color_mkvmj60x",
		"instalment_5_status": "color_mkvmbs6q",

		"booking_fee_paid":  "numeric_mkvttd71",
		"instalment_1_paid": "numeric_mkvt65kz",
		"instalment_2_paid": "numeric_mkvtvhaj",
		"instalment_3_paid": "numeric_mks9ge93",
		"instalment_4_paid": "numeric_mksay7t3",
		"instalment_5_paid": "numeric_mkvmg7qw",

		"booking_fee_paid_date":  "date_mkvmnthc",
		"instalment_1_paid_date": "date_mkvmv57g",
		"instalment_2_paid_date": "date_mkvmmygn",
		"instalment_3_paid_date": "date_mkvm7kh9",
		"instalment_4_paid_date": "date_mkvmxnhd",
		"instalment_5_paid_date": "date_mkvme5qn",
	}
}

// With returns a copy of c with overrides applied.
func (c Columns) With(overrides map[string]string) Columns {
	out := make(Columns, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// instalments lists the payment slots on a won deal, in due order.
var instalments = []string{
	"booking_fee", "instalment_1", "instalment_2", "instalment_3", "instalment_4", "instalment_5",
}

// Deal is a won deal mapped onto a contract and its payment slots.
type Deal struct {
	Contract model.Contract
	Payments []model.ScheduledPayment
}

// MapRoom maps a unit schedule item to a room. Items without a name are skipped.
func MapRoom(it Item, cols Columns) (model.Room, bool) {
	id := strings.TrimSpace(it.Name)
	if id == "" {
		return model.Room{}, false
	}
	return model.Room{
		ID:         id,
		Floor:      it.Text(cols["room.floor"]),
		Category:   model.RoomCategory(it.Text(cols["room.category"])),
		Sqm:        parseNumber(it.Text(cols["room.sqm"])),
		WeeklyRate: parseNumber(it.Text(cols["room.weekly_rate"])),
		MondayID:   it.ID,
	}, true
}

// MapDeal maps a won deal to a contract with its instalments. Deals missing
// a resident name, a unit or stay dates return an error naming the gap.
func MapDeal(it Item, cols Columns) (Deal, error) {
	name := strings.TrimSpace(it.Name)
	room := NormalizeRoomID(it.Text(cols["unit"]))
	if name == "" || room == "" {
		return Deal{}, fmt.Errorf("item %s: missing name or unit", it.ID)
	}
	start, end := parseTimeline(it.Raw(cols["length_of_stay"]))
	if start.IsZero() || end.IsZero() {
		return Deal{}, fmt.Errorf("item %s (%s): missing stay dates", it.ID, name)
	}

	c := model.Contract{
		MondayID:     it.ID,
		RoomID:       room,
		ResidentName: name,
		StartDate:    start,
		EndDate:      end,
		SignedDate:   parseDate(it.Text(cols["sign_date"])),
		WeeklyRate:   parseNumber(it.Text(cols["rate_agreed"])),
		TotalValue:   parseNumber(it.Text(cols["gross_income"])),
		WeeksBooked:  math.Round(float64(model.DaysBetween(start, end))/7*10) / 10,
		PaymentPlan:  model.PaymentPlan(it.Text(cols["payment_plan"])),
		Status:       model.StatusActive,
		Nationality:  it.Text(cols["nationality"]),
		University:   it.Text(cols["university"]),
		Source:       "monday",
	}

	var payments []model.ScheduledPayment
	var sum float64
	for _, slot := range instalments {
		amount := parseNumber(it.Text(cols[slot+"_amount"]))
		if amount <= 0 {
			continue
		}
		sum += amount

		due := parseDate(it.Text(cols[slot+"_due"]))
		if due.IsZero() {
			due = start
		}
		kind := model.PaymentRent
		if slot == "booking_fee" {
			kind = model.PaymentDeposit
		}
		p := model.ScheduledPayment{
			DueDate:     due,
			Amount:      amount,
			PaymentType: kind,
			Status:      MapPaymentStatus(it.Text(cols[slot+"_status"])),
		}
		if paid := parseNumber(it.Text(cols[slot+"_paid"])); paid > 0 {
			p.PaidAmount = paid
			p.PaidDate = parseDate(it.Text(cols[slot+"_paid_date"]))
		}
		payments = append(payments, p)
	}
	if c.TotalValue <= 0 {
		c.TotalValue = sum
	}
	return Deal{Contract: c, Payments: payments}, nil
}

// MapViewing maps an item's viewing date column to a viewing.
func MapViewing(it Item, columnID, board string) (model.Viewing, bool) {
	name := strings.TrimSpace(it.Name)
	date := parseDate(it.Text(columnID))
	if name == "" || date.IsZero() {
		return model.Viewing{}, false
	}
	return model.Viewing{Name: name, Date: date, Board: board}, true
}

var trailingZeroRoom = regexp.MustCompile(`^(-?\d+)\.(\d)0$`)

// NormalizeRoomID rewrites CRM unit labels to unit schedule IDs:
// "M10" becomes "MEZZ 10" and "-1.10" becomes "-1.1".
func NormalizeRoomID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if len(id) > 1 && (id[0] == 'M' || id[0] == 'm') && isDigits(id[1:]) {
		return "MEZZ " + id[1:]
	}
	if m := trailingZeroRoom.FindStringSubmatch(id); m != nil {
		return m[1] + "." + m[2]
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// MapPaymentStatus maps CRM status labels to payment statuses.
func MapPaymentStatus(label string) model.PaymentStatus {
	s := strings.ToLower(label)
	switch {
	case s == "", strings.Contains(s, "unpaid"), strings.Contains(s, "not paid"):
		return model.PaymentPending
	case strings.Contains(s, "paid") || strings.Contains(s, "received"):
		return model.PaymentPaid
	case strings.Contains(s, "partial"):
		return model.PaymentPartial
	case strings.Contains(s, "overdue") || strings.Contains(s, "late"):
		return model.PaymentOverdue
	default:
		return model.PaymentPending
	}
}

// parseNumber reads a number, ignoring pound signs, commas and spaces.
// Unparseable input yields 0.
func parseNumber(s string) float64 {
	clean := strings.NewReplacer("£", "", ",", "", " ", "").Replace(s)
	if clean == "" {
		return 0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimeline reads a timeline column's raw {"from","to"} value.
func parseTimeline(raw string) (time.Time, time.Time) {
	if raw == "" {
		return time.Time{}, time.Time{}
	}
	var tl struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal([]byte(raw), &tl); err != nil {
		return time.Time{}, time.Time{}
	}
	return parseDate(tl.From), parseDate(tl.To)
}
