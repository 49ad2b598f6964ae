package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// syntheticContracts builds a few academic years of back-to-back bookings.
func syntheticContracts(rooms, years int) []model.Contract {
	var contracts []model.Contract
	id := int64(0)
	for y := 0; y < years; y++ {
		start := time.Date(2022+y, 9, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2023+y, 6, 30, 0, 0, 0, 0, time.UTC)
		for r := 0; r < rooms; r++ {
			id++
			contracts = append(contracts, model.Contract{
				ID:          id,
				RoomID:      fmt.Sprintf("%d.%02d", r/20+1, r%20+1),
				StartDate:   start.AddDate(0, 0, r%14),
				EndDate:     end,
				WeeklyRate:  320 + float64(r%5)*40,
				TotalValue:  12000,
				PaymentPlan: model.PlanInstallments,
				Status:      model.StatusActive,
			})
		}
	}
	return contracts
}

func BenchmarkAggregateMonthly(b *testing.B) {
	contracts := syntheticContracts(120, 4)
	start := time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateMonthly(contracts, 120, start, end)
	}
}

func BenchmarkForecastVacancies(b *testing.B) {
	contracts := syntheticContracts(120, 4)
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ForecastVacancies(contracts, today, 60)
	}
}

func BenchmarkLoadSchedules(b *testing.B) {
	snap := model.Snapshot{Contracts: syntheticContracts(120, 4)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = complete(snap, nil)
	}
}
