package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/config"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldAPIURL
	settingsFieldTotalRooms
	settingsFieldOpeningBalance
	settingsFieldHorizon
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.TUI.Theme)
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldAPIURL:
		ti.Placeholder = "http://127.0.0.1:8002 (empty reads locally)"
		ti.SetValue(cfg.TUI.APIURL)
	case settingsFieldTotalRooms:
		ti.Placeholder = "120"
		ti.SetValue(strconv.Itoa(cfg.General.TotalRooms))
	case settingsFieldOpeningBalance:
		ti.Placeholder = "0"
		ti.SetValue(strconv.FormatFloat(cfg.General.OpeningBalance, 'f', -1, 64))
	case settingsFieldHorizon:
		ti.Placeholder = "60"
		ti.SetValue(strconv.Itoa(cfg.General.VacancyHorizon))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())
	a.settings.saveErr = nil

	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.TUI.Theme = val
		theme.SetActive(val)
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
		a.autoRefresh = cfg.TUI.AutoRefresh
	case settingsFieldRefreshInterval:
		n, err := strconv.Atoi(val)
		if err != nil || n < int(minRefreshInterval.Seconds()) {
			a.settings.saveErr = fmt.Errorf("refresh interval must be at least %s", minRefreshInterval)
			return
		}
		cfg.TUI.RefreshIntervalSec = n
		a.refreshInterval = time.Duration(n) * time.Second
	case settingsFieldAPIURL:
		if err := validateURL(val); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.TUI.APIURL = strings.TrimRight(val, "/")
	case settingsFieldTotalRooms:
		n, err := parseRooms(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.TotalRooms = n
	case settingsFieldOpeningBalance:
		f, err := parseBalance(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.OpeningBalance = f
	case settingsFieldHorizon:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			a.settings.saveErr = fmt.Errorf("horizon must be a positive number of days")
			return
		}
		cfg.General.VacancyHorizon = n
	}

	a.settings.saveErr = config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	apiURL := cfg.TUI.APIURL
	if apiURL == "" {
		apiURL = "(local store)"
	}

	fields := [][2]string{
		{"Theme", cfg.TUI.Theme},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"API URL", apiURL},
		{"Total Rooms", strconv.Itoa(cfg.General.TotalRooms)},
		{"Opening Balance", cli.FormatMoney(cfg.General.OpeningBalance)},
		{"Vacancy Horizon", fmt.Sprintf("%d days", cfg.General.VacancyHorizon)},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f[0])))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":"))
			value := selectedStyle.Render(f[1])
			formBody.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":")))
			formBody.WriteString(valueStyle.Render(f[1]))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved! Rooms, balance and API changes apply on next start."))
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(a.renderSyncCard(cw))
	b.WriteString("\n")

	info := labelValue([][2]string{
		{"Source", a.sourceLabel()},
		{"Load time", fmt.Sprintf("%.1fs", a.loadTime.Seconds())},
		{"Config file", config.ConfigPath()},
		{"Local store", cfg.Database.SQLitePathOrDefault()},
	})
	b.WriteString(components.ContentCard("General", info, cw))
	return b.String()
}

func (a App) renderSyncCard(cw int) string {
	if a.sc == nil {
		return components.ContentCard("CRM sync", dimText("Sync is not available for this source"), cw)
	}
	if a.syncErr != nil && a.syncStatus.Sync.Status == "" {
		return components.EmptyCard("CRM sync", cw)
	}

	st := a.syncStatus
	run := st.Sync
	state := run.Status
	if state == "" {
		state = model.SyncIdle
	}

	pairs := [][2]string{
		{"State", components.SyncBadge(state, "")},
		{"Last synced", cli.FormatAgo(run.LastSyncedAt)},
	}
	if run.ID != "" {
		pairs = append(pairs, [2]string{"Run", run.ID})
	}
	if run.Result != nil && run.Result.Error != "" {
		pairs = append(pairs, [2]string{"Error", run.Result.Error})
	}
	if a.syncErr != nil {
		pairs = append(pairs, [2]string{"Status check", a.syncErr.Error()})
	}
	if !st.Snapshot.LoadedAt.IsZero() {
		pairs = append(pairs, [2]string{"Snapshot", fmt.Sprintf("%d rooms, %d contracts, loaded %s",
			st.Snapshot.Rooms, st.Snapshot.Contracts, cli.FormatAgo(&st.Snapshot.LoadedAt))})
	}
	body := labelValue(pairs)

	if len(st.DBCounts) > 0 {
		keys := make([]string, 0, len(st.DBCounts))
		for k := range st.DBCounts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([]tableRow, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, tableRow{cells: []string{k, cli.FormatNumber(int64(st.DBCounts[k]))}})
		}
		body += "\n\n" + renderTable([]column{{title: "Table"}, {title: "Rows", right: true}}, rows, 0)
	}
	if len(st.Boards) > 0 {
		rows := make([]tableRow, 0, len(st.Boards))
		for _, bd := range st.Boards {
			rows = append(rows, tableRow{cells: []string{bd.Name, bd.ID, cli.FormatNumber(int64(bd.ItemsCount))}})
		}
		body += "\n\n" + renderTable([]column{{title: "Board"}, {title: "ID"}, {title: "Items", right: true}}, rows, components.CardInnerWidth(cw))
	}
	body += "\n\n" + dimText("[s] start a sync")
	return components.ContentCard("CRM sync", body, cw)
}
