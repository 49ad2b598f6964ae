package tui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

// roomsState tracks the room list cursor and the open timeline.
type roomsState struct {
	cursor int

	timelineID      string
	timeline        model.RoomTimeline
	timelineErr     error
	loadingTimeline bool
}

func (r *roomsState) move(n, total int) {
	r.cursor += n
	r.clamp(total)
}

func (r *roomsState) clamp(total int) {
	if r.cursor >= total {
		r.cursor = total - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
}

func (r *roomsState) closeTimeline() {
	r.timelineID = ""
	r.timeline = model.RoomTimeline{}
	r.timelineErr = nil
	r.loadingTimeline = false
}

// updateRoomsKey handles list navigation; handled is false for keys the
// global handler should see.
func (a App) updateRoomsKey(key string) (tea.Model, tea.Cmd, bool) {
	rooms := a.dashboard().Rooms.Data
	switch key {
	case "j", "down":
		a.rooms.move(1, len(rooms))
	case "k", "up":
		a.rooms.move(-1, len(rooms))
	case "g":
		a.rooms.cursor = 0
	case "G":
		a.rooms.cursor = len(rooms) - 1
		a.rooms.clamp(len(rooms))
	case "enter":
		if a.rooms.cursor >= len(rooms) {
			return a, nil, true
		}
		id := rooms[a.rooms.cursor].RoomID
		a.rooms.closeTimeline()
		a.rooms.timelineID = id
		a.rooms.loadingTimeline = true
		return a, timelineCmd(a.an, id), true
	case "esc":
		a.rooms.closeTimeline()
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderRoomsTab(cw, h int) string {
	d := a.dashboard()
	if !d.Rooms.OK() {
		return components.EmptyCard("Rooms", cw)
	}
	rooms := d.Rooms.Data

	listW, detailW := cw, cw
	split := !a.isCompactLayout() && a.rooms.timelineID != ""
	if split {
		ws := components.LayoutRow(cw, 5)
		listW = ws[0] + ws[1] + ws[2]
		detailW = ws[3] + ws[4]
	}

	// Rows available for the list inside its card (title + header + border).
	visible := h - 4
	if !split && a.rooms.timelineID != "" {
		visible = h/2 - 4
	}
	if visible < 3 {
		visible = 3
	}
	offset := 0
	if a.rooms.cursor >= visible {
		offset = a.rooms.cursor - visible + 1
	}

	occupied := 0
	for _, r := range rooms {
		if r.Status == model.RoomOccupied {
			occupied++
		}
	}

	t := theme.Active
	rows := make([]tableRow, 0, visible)
	for i := offset; i < len(rooms) && i < offset+visible; i++ {
		r := rooms[i]
		until := ""
		if r.OccupiedUntil != "" {
			until = cli.FormatDate(r.OccupiedUntil)
		}
		row := tableRow{
			cells: []string{
				r.RoomID,
				r.Floor,
				string(r.Category),
				cli.FormatMoney(r.WeeklyRate),
				r.Status,
				r.CurrentTenant,
				until,
			},
			selected: i == a.rooms.cursor,
		}
		if r.Status == model.RoomVacant {
			row.color = t.RoomStatus(r.Status)
		}
		rows = append(rows, row)
	}
	cols := []column{
		{title: "Room"},
		{title: "Floor"},
		{title: "Category"},
		{title: "Weekly", right: true},
		{title: "Status"},
		{title: "Tenant"},
		{title: "Until"},
	}
	title := fmt.Sprintf("Rooms  %d/%d occupied  [Enter] timeline", occupied, len(rooms))
	list := components.ContentCard(title, renderTable(cols, rows, components.CardInnerWidth(listW)), listW)

	if a.rooms.timelineID == "" {
		return list
	}
	detail := a.renderTimeline(detailW)
	if split {
		return components.CardRow([]string{list, detail})
	}
	return list + "\n" + detail
}

func (a App) renderTimeline(w int) string {
	rs := a.rooms
	title := "Room " + rs.timelineID
	switch {
	case rs.loadingTimeline:
		return components.ContentCard(title, a.spinner.View()+dimText(" loading bookings..."), w)
	case rs.timelineErr != nil:
		var se *analytics.StatusError
		if errors.Is(rs.timelineErr, pipeline.ErrRoomNotFound) || (errors.As(rs.timelineErr, &se) && se.Code == http.StatusNotFound) {
			return components.ContentCard(title, dimText("Room not found"), w)
		}
		return components.EmptyCard(title, w)
	}

	tl := rs.timeline
	var b strings.Builder
	b.WriteString(labelValue([][2]string{
		{"Floor", tl.Floor},
		{"Category", string(tl.Category)},
		{"Size", fmt.Sprintf("%.1f m²", tl.Sqm)},
	}))
	b.WriteString("\n\n")
	if len(tl.Contracts) == 0 {
		b.WriteString(dimText("No bookings"))
		return components.ContentCard(title, b.String(), w)
	}

	t := theme.Active
	rows := make([]tableRow, 0, len(tl.Contracts))
	for _, c := range tl.Contracts {
		r := tableRow{cells: []string{
			c.ResidentName,
			cli.FormatDate(c.StartDate),
			cli.FormatDate(c.EndDate),
			cli.FormatMoney(c.WeeklyRate),
			string(c.Status),
		}}
		switch c.Status {
		case model.TimelineActive:
			r.color = t.Green
		case model.TimelinePast:
			r.color = t.TextDim
		}
		rows = append(rows, r)
	}
	cols := []column{
		{title: "Resident"},
		{title: "From"},
		{title: "To"},
		{title: "Weekly", right: true},
		{title: "Status"},
	}
	b.WriteString(renderTable(cols, rows, components.CardInnerWidth(w)))
	b.WriteString("\n")
	b.WriteString(dimText("[Esc] close"))
	return components.ContentCard(title, b.String(), w)
}
