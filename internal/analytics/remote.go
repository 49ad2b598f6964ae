package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/morehouse/mhouse/internal/daemon"
	"github.com/morehouse/mhouse/internal/model"
)

const remoteTimeout = 10 * time.Second

// Remote reads every view from a running mhouse API.
type Remote struct {
	http *resty.Client
}

var (
	_ Analytics   = (*Remote)(nil)
	_ SyncControl = (*Remote)(nil)
)

// NewRemote creates a client for the API rooted at baseURL, such as
// "http://127.0.0.1:8002". Returns nil if baseURL is empty.
func NewRemote(baseURL string) *Remote {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Remote{
		http: resty.New().
			SetBaseURL(baseURL+"/api").
			SetTimeout(remoteTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "mhouse/1.0"),
	}
}

func (c *Remote) OccupancySummary(ctx context.Context) (model.OccupancySummary, error) {
	var out model.OccupancySummary
	err := c.get(ctx, "/occupancy/summary", nil, &out)
	return out, err
}

func (c *Remote) OccupancyMonthly(ctx context.Context, startMonth, endMonth time.Time) ([]model.OccupancyPeriod, error) {
	var out []model.OccupancyPeriod
	err := c.get(ctx, "/occupancy/monthly", monthParams(startMonth, endMonth), &out)
	return out, err
}

func (c *Remote) OccupancyWeekly(ctx context.Context, start time.Time, weeks int) ([]model.OccupancyPeriod, error) {
	var out []model.OccupancyPeriod
	err := c.get(ctx, "/occupancy/weekly", weekParams(start, weeks), &out)
	return out, err
}

func (c *Remote) Vacancies(ctx context.Context, days int) ([]model.Vacancy, error) {
	var out []model.Vacancy
	var params map[string]string
	if days > 0 {
		params = map[string]string{"days": strconv.Itoa(days)}
	}
	err := c.get(ctx, "/occupancy/vacancies/upcoming", params, &out)
	return out, err
}

func (c *Remote) Rooms(ctx context.Context) ([]model.RoomState, error) {
	var out []model.RoomState
	err := c.get(ctx, "/occupancy/rooms", nil, &out)
	return out, err
}

func (c *Remote) RoomTimeline(ctx context.Context, roomID string) (model.RoomTimeline, error) {
	var out model.RoomTimeline
	err := c.get(ctx, "/occupancy/rooms/"+url.PathEscape(roomID)+"/timeline", nil, &out)
	return out, err
}

func (c *Remote) CashSummary(ctx context.Context) (model.CashSummary, error) {
	var out model.CashSummary
	err := c.get(ctx, "/cashflow/summary", nil, &out)
	return out, err
}

func (c *Remote) CashMonthly(ctx context.Context, startMonth, endMonth time.Time) ([]model.CashFlowPeriod, error) {
	var out []model.CashFlowPeriod
	err := c.get(ctx, "/cashflow/monthly", monthParams(startMonth, endMonth), &out)
	return out, err
}

func (c *Remote) CashWeekly(ctx context.Context, start time.Time, weeks int) ([]model.WeeklyCashFlow, error) {
	var out []model.WeeklyCashFlow
	err := c.get(ctx, "/cashflow/weekly", weekParams(start, weeks), &out)
	return out, err
}

func (c *Remote) PaymentSchedule(ctx context.Context, startMonth, endMonth time.Time) ([]model.PaymentScheduleRow, error) {
	var out []model.PaymentScheduleRow
	err := c.get(ctx, "/cashflow/payments/schedule", monthParams(startMonth, endMonth), &out)
	return out, err
}

func (c *Remote) ExpectedPayments(ctx context.Context, from, to time.Time) ([]model.ExpectedPayment, error) {
	var out []model.ExpectedPayment
	params := map[string]string{
		"start_date": from.Format(model.DateLayout),
		"end_date":   to.Format(model.DateLayout),
	}
	err := c.get(ctx, "/cashflow/payments/expected", params, &out)
	return out, err
}

func (c *Remote) OverduePayments(ctx context.Context) ([]model.OverduePayment, error) {
	var out []model.OverduePayment
	err := c.get(ctx, "/cashflow/payments/overdue", nil, &out)
	return out, err
}

func (c *Remote) Activity(ctx context.Context) (model.ActivitySummary, error) {
	var out model.ActivitySummary
	err := c.get(ctx, "/activity/summary", nil, &out)
	return out, err
}

// SyncStatus returns the API's sync run, board and table status.
func (c *Remote) SyncStatus(ctx context.Context) (daemon.SyncStatus, error) {
	var out daemon.SyncStatus
	err := c.get(ctx, "/sync/status", nil, &out)
	return out, err
}

// TriggerSync asks the API to start a sync run.
func (c *Remote) TriggerSync(ctx context.Context) (TriggerResult, error) {
	var out TriggerResult
	resp, err := c.http.R().SetContext(ctx).Post("/sync/run")
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	err = decode(resp, &out)
	return out, err
}

// get performs a GET and decodes a successful JSON body into out.
func (c *Remote) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return decode(resp, out)
}

func decode(resp *resty.Response, out any) error {
	if !resp.IsSuccess() {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(resp.Body(), &body)
		return &StatusError{Code: resp.StatusCode(), Message: body.Error}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("api: parsing %s: %w", resp.Request.URL, err)
	}
	return nil
}

func monthParams(startMonth, endMonth time.Time) map[string]string {
	return map[string]string{
		"start_month": startMonth.Format(model.MonthLayout),
		"end_month":   endMonth.Format(model.MonthLayout),
	}
}

func weekParams(start time.Time, weeks int) map[string]string {
	return map[string]string{
		"start_date": start.Format(model.DateLayout),
		"weeks":      strconv.Itoa(weeks),
	}
}
