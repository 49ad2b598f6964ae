// Package tui provides the interactive Bubble Tea dashboard for mhouse.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/morehouse/mhouse/internal/analytics"
	"github.com/morehouse/mhouse/internal/cli"
	"github.com/morehouse/mhouse/internal/config"
	"github.com/morehouse/mhouse/internal/daemon"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/syncer"
	"github.com/morehouse/mhouse/internal/tui/components"
	"github.com/morehouse/mhouse/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DashboardMsg is sent when a dashboard fetch finishes.
type DashboardMsg struct {
	Data     *analytics.Dashboard
	LoadTime time.Duration
	// Err is set when the data could not be reloaded at all.
	Err error
}

// SyncStatusMsg carries a fresh sync status.
type SyncStatusMsg struct {
	Status daemon.SyncStatus
	Err    error
}

// SyncTriggeredMsg is the answer to a sync request.
type SyncTriggeredMsg struct {
	Result analytics.TriggerResult
	Err    error
}

// TimelineMsg carries the bookings of one room.
type TimelineMsg struct {
	RoomID   string
	Timeline model.RoomTimeline
	Err      error
}

// syncUpdateMsg is one poller observation. done marks the closed channel.
type syncUpdateMsg struct {
	update syncer.Update
	done   bool
}

type tickMsg struct{}

// Options configures the dashboard.
type Options struct {
	// Source is shown in the status bar, e.g. "local" or the API URL.
	Source          string
	VacancyDays     int
	Months          int
	Weeks           int
	AutoRefresh     bool
	RefreshInterval time.Duration
	PollInterval    time.Duration
	NeedSetup       bool
	// Reload, when set, refreshes the underlying snapshot before each fetch.
	Reload func(ctx context.Context) error
}

// App is the root Bubble Tea model.
type App struct {
	an   analytics.Analytics
	sc   analytics.SyncControl
	opts Options

	// Data
	dash     *analytics.Dashboard
	loaded   bool
	loadTime time.Duration
	loadErr  error

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Sync state
	syncStatus daemon.SyncStatus
	syncErr    error
	polling    bool
	pollCh     <-chan syncer.Update
	pollCancel context.CancelFunc

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int

	// Per-tab state
	rooms    roomsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	tabOverview = iota
	tabOccupancy
	tabVacancies
	tabCashFlow
	tabRooms
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight   = 5
	minRefreshInterval = 10 * time.Second
	fetchTimeout       = time.Minute
)

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures the TUI can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model. sc may be nil when syncing is not
// available.
func NewApp(an analytics.Analytics, sc analytics.SyncControl, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := opts.RefreshInterval
	if interval < minRefreshInterval {
		interval = 30 * time.Second
	}

	return App{
		an:              an,
		sc:              sc,
		opts:            opts,
		needSetup:       opts.NeedSetup,
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: interval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		fetchDashboardCmd(a.an, a.params(), a.opts.Reload),
		a.spinner.Tick,
		tickCmd(),
	}
	if a.sc != nil {
		cmds = append(cmds, syncStatusCmd(a.sc))
	}
	return tea.Batch(cmds...)
}

func (a App) params() analytics.DashboardParams {
	return analytics.DashboardParams{
		Months:      a.opts.Months,
		Weeks:       a.opts.Weeks,
		VacancyDays: a.opts.VacancyDays,
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.scrollBy(-1), nil
		case tea.MouseButtonWheelDown:
			return a.scrollBy(1), nil
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a = a.switchTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DashboardMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadTime = msg.LoadTime
		wasLoaded := a.loaded
		a.loaded = true

		switch {
		case msg.Err != nil:
			a.loadErr = msg.Err
		case msg.Data == nil:
		case msg.Data.Fatal() != nil:
			// Keep the last good data on screen behind the banner.
			a.loadErr = msg.Data.Fatal()
			if a.dash == nil {
				a.dash = msg.Data
			}
		default:
			a.loadErr = nil
			a.dash = msg.Data
			a.rooms.clamp(len(a.dashboard().Rooms.Data))
		}

		if !wasLoaded && a.needSetup {
			a.setupVals = NewSetupValues(loadConfigOrDefault())
			a.setupForm = NewSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case SyncStatusMsg:
		if msg.Err != nil {
			a.syncErr = msg.Err
			return a, nil
		}
		a.syncErr = nil
		a.syncStatus = msg.Status
		if msg.Status.Sync.Status == model.SyncSyncing && !a.polling {
			return a.startPolling()
		}
		return a, nil

	case SyncTriggeredMsg:
		if msg.Err != nil {
			a.syncErr = msg.Err
			return a, nil
		}
		a.syncErr = nil
		a.syncStatus.Sync.Status = model.SyncSyncing
		if msg.Result.RunID != "" {
			a.syncStatus.Sync.ID = msg.Result.RunID
		}
		if a.polling {
			return a, nil
		}
		return a.startPolling()

	case syncUpdateMsg:
		if msg.done {
			a.stopPolling()
			cmds := []tea.Cmd{syncStatusCmd(a.sc)}
			if a.syncStatus.Sync.Status == model.SyncCompleted && !a.refreshing {
				a.refreshing = true
				cmds = append(cmds, fetchDashboardCmd(a.an, a.params(), a.opts.Reload))
			}
			return a, tea.Batch(cmds...)
		}
		if msg.update.Err != nil {
			a.syncErr = msg.update.Err
		} else {
			a.syncErr = nil
			a.syncStatus.Sync = msg.update.Run
		}
		return a, waitForSyncUpdate(a.pollCh)

	case TimelineMsg:
		if msg.RoomID == a.rooms.timelineID {
			a.rooms.loadingTimeline = false
			a.rooms.timeline = msg.Timeline
			a.rooms.timelineErr = msg.Err
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing || a.polling {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, fetchDashboardCmd(a.an, a.params(), a.opts.Reload), a.spinner.Tick)
			if a.sc != nil && !a.polling {
				cmds = append(cmds, syncStatusCmd(a.sc))
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		a.stopPolling()
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Settings tab has its own keybindings (text input)
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabRooms:
		if next, cmd, handled := a.updateRoomsKey(key); handled {
			return next, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	default:
		switch key {
		case "j", "down":
			return a.scrollBy(1), nil
		case "k", "up":
			return a.scrollBy(-1), nil
		case "g":
			a.scroll = 0
			return a, nil
		}
	}

	switch key {
	case "q":
		a.stopPolling()
		return a, tea.Quit

	case "r":
		if a.refreshing {
			return a, nil
		}
		a.refreshing = true
		cmds := []tea.Cmd{fetchDashboardCmd(a.an, a.params(), a.opts.Reload), a.spinner.Tick}
		if a.sc != nil && !a.polling {
			cmds = append(cmds, syncStatusCmd(a.sc))
		}
		return a, tea.Batch(cmds...)

	case "R":
		a.autoRefresh = !a.autoRefresh
		// Persist to config (best-effort, ignore errors)
		cfg := loadConfigOrDefault()
		cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(cfg)
		return a, nil

	case "s":
		if a.sc == nil || a.polling || a.syncStatus.Sync.Status == model.SyncSyncing {
			return a, nil
		}
		return a, tea.Batch(triggerSyncCmd(a.sc), a.spinner.Tick)

	case "left", "shift+tab":
		return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)), nil
	case "right", "tab":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs)), nil
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			return a.switchTab(idx), nil
		}
	}
	return a, nil
}

func (a App) switchTab(idx int) App {
	if idx != a.activeTab {
		a.activeTab = idx
		a.scroll = 0
	}
	return a
}

func (a App) scrollBy(n int) App {
	if a.activeTab == tabRooms {
		a.rooms.move(n, len(a.dashboard().Rooms.Data))
		return a
	}
	a.scroll += n
	if a.scroll < 0 {
		a.scroll = 0
	}
	return a
}

// startPolling follows the running sync until it leaves the syncing state.
func (a App) startPolling() (App, tea.Cmd) {
	if a.sc == nil {
		return a, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	poller := syncer.Poller{Interval: a.opts.PollInterval}
	a.pollCh = poller.Watch(ctx, analytics.SyncRunFetcher(a.sc))
	a.pollCancel = cancel
	a.polling = true
	return a, tea.Batch(waitForSyncUpdate(a.pollCh), a.spinner.Tick)
}

func (a *App) stopPolling() {
	if a.pollCancel != nil {
		a.pollCancel()
	}
	a.pollCancel = nil
	a.pollCh = nil
	a.polling = false
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg := loadConfigOrDefault()
		if err := a.setupVals.Apply(&cfg); err == nil {
			a.settings.saveErr = config.Save(cfg)
			theme.SetActive(cfg.TUI.Theme)
			a.autoRefresh = cfg.TUI.AutoRefresh
		} else {
			a.settings.saveErr = err
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// dashboard returns the loaded dashboard, or one whose widgets all report
// missing data.
func (a App) dashboard() *analytics.Dashboard {
	if a.dash != nil {
		return a.dash
	}
	return notLoaded
}

var errNotLoaded = errors.New("not loaded")

var notLoaded = &analytics.Dashboard{
	Summary:     analytics.Widget[model.OccupancySummary]{Err: errNotLoaded},
	Monthly:     analytics.Widget[[]model.OccupancyPeriod]{Err: errNotLoaded},
	Weekly:      analytics.Widget[[]model.OccupancyPeriod]{Err: errNotLoaded},
	Vacancies:   analytics.Widget[[]model.Vacancy]{Err: errNotLoaded},
	Rooms:       analytics.Widget[[]model.RoomState]{Err: errNotLoaded},
	CashSummary: analytics.Widget[model.CashSummary]{Err: errNotLoaded},
	CashMonthly: analytics.Widget[[]model.CashFlowPeriod]{Err: errNotLoaded},
	Overdue:     analytics.Widget[[]model.OverduePayment]{Err: errNotLoaded},
	Activity:    analytics.Widget[model.ActivitySummary]{Err: errNotLoaded},
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) vacancyDays() int {
	if a.opts.VacancyDays > 0 {
		return a.opts.VacancyDays
	}
	return 60
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  mhouse needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ mhouse"))
	b.WriteString(subtitleStyle.Render(" · More House occupancy & cash flow"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading dashboard from " + a.sourceLabel() + "..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, title string, binds [][2]string) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", [][2]string{
		{"o c v f m x", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"j k", "Scroll / move selection"},
		{"g G", "Top / bottom"},
	})
	b.WriteString("\n")
	section(&b, "Actions", [][2]string{
		{"Enter", "Open room timeline / edit setting"},
		{"Esc", "Close / Cancel"},
		{"s", "Start a CRM sync"},
		{"r", "Refresh data"},
		{"R", "Toggle auto-refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) sourceLabel() string {
	if a.opts.Source != "" {
		return a.opts.Source
	}
	return "local store"
}

func (a App) syncNote() string {
	switch {
	case a.syncErr != nil:
		return "status unavailable"
	case a.syncStatus.Sync.Status == model.SyncSyncing:
		return a.spinner.View()
	case a.syncStatus.Sync.LastSyncedAt != nil:
		return cli.FormatAgo(a.syncStatus.Sync.LastSyncedAt)
	}
	return ""
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + context row
	infoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	info := infoStyle.Render(" as of ")
	if d := a.dashboard(); d.Summary.OK() && d.Summary.Data.AsOf != "" {
		info += accentStyle.Render(cli.FormatDate(d.Summary.Data.AsOf))
	} else {
		info += accentStyle.Render(model.Today().Format("2 Jan 2006"))
	}
	info += infoStyle.Render(fmt.Sprintf(" │ horizon %dd │ %s", a.vacancyDays(), a.sourceLabel()))
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(info)

	// 2. Status bar
	status := components.StatusInfo{
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
	}
	if !a.lastRefresh.IsZero() {
		status.DataAge = cli.FormatAgo(&a.lastRefresh)
	}
	if a.sc != nil {
		status.Sync = a.syncStatus.Sync.Status
		if status.Sync == "" {
			status.Sync = model.SyncIdle
		}
		status.SyncNote = a.syncNote()
	}
	statusBar := components.RenderStatusBar(w, status)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabOccupancy:
		content = a.renderOccupancyTab(cw)
	case tabVacancies:
		content = a.renderVacanciesTab(cw)
	case tabCashFlow:
		content = a.renderCashFlowTab(cw)
	case tabRooms:
		content = a.renderRoomsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}
	if a.activeTab != tabRooms {
		content = scrollLines(content, a.scroll)
	}
	if banner := a.renderBanner(cw); banner != "" {
		content = banner + "\n" + content
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderBanner shows a retryable error when the data source is unreachable.
func (a App) renderBanner(cw int) string {
	if a.loadErr == nil {
		return ""
	}
	t := theme.Active
	style := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Red).
		Bold(true).
		Width(cw).
		Padding(0, 1)
	msg := "Cannot load data: " + a.loadErr.Error()
	if errors.Is(a.loadErr, analytics.ErrUnavailable) {
		msg = "API unreachable at " + a.sourceLabel()
	}
	return style.Render(truncStr(msg+"  [r] retry", cw-2))
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// fetchDashboardCmd reloads (when possible) and fetches every widget.
func fetchDashboardCmd(an analytics.Analytics, p analytics.DashboardParams, reload func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if reload != nil {
			if err := reload(ctx); err != nil {
				return DashboardMsg{Err: err, LoadTime: time.Since(start)}
			}
		}
		d := analytics.FetchDashboard(ctx, an, p)
		return DashboardMsg{Data: d, LoadTime: time.Since(start)}
	}
}

func syncStatusCmd(sc analytics.SyncControl) tea.Cmd {
	if sc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		st, err := sc.SyncStatus(ctx)
		return SyncStatusMsg{Status: st, Err: err}
	}
}

func triggerSyncCmd(sc analytics.SyncControl) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		res, err := sc.TriggerSync(ctx)
		return SyncTriggeredMsg{Result: res, Err: err}
	}
}

// waitForSyncUpdate blocks until the poller reports or closes.
func waitForSyncUpdate(ch <-chan syncer.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return syncUpdateMsg{done: true}
		}
		return syncUpdateMsg{update: u}
	}
}

func timelineCmd(an analytics.Analytics, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		tl, err := an.RoomTimeline(ctx, roomID)
		return TimelineMsg{RoomID: roomID, Timeline: tl, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// scrollLines drops the first n lines, keeping at least the last one.
func scrollLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if n >= len(lines) {
		n = len(lines) - 1
	}
	return strings.Join(lines[n:], "\n")
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
