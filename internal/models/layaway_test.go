package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecomputeBalance(t *testing.T) {
	plan := LayawayPlan{TotalValue: dec("100000"), DownPayment: dec("20000")}
	plan.RecomputeBalance()

	assert.True(t, plan.BalanceDue.Equal(dec("80000")))
	assert.Equal(t, LayawayActive, plan.Status)

	plan.ApplyPayment(dec("80000"))
	assert.True(t, plan.BalanceDue.IsZero())
	assert.Equal(t, LayawayCompleted, plan.Status)
	assert.True(t, plan.DownPayment.Equal(dec("100000")))
}

func TestRecomputeBalanceClampsAtZero(t *testing.T) {
	plan := LayawayPlan{TotalValue: dec("50"), DownPayment: dec("70"), Status: LayawayActive}
	plan.RecomputeBalance()

	assert.True(t, plan.BalanceDue.IsZero())
	assert.Equal(t, LayawayCompleted, plan.Status)
}

func TestEffectiveStatus(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 30, 0, 0, time.Local)

	tests := []struct {
		name     string
		status   LayawayStatus
		deadline time.Time
		want     LayawayStatus
	}{
		{"active before deadline", LayawayActive, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), LayawayActive},
		{"active on deadline day", LayawayActive, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), LayawayActive},
		{"active past deadline", LayawayActive, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), LayawayOverdue},
		{"completed past deadline", LayawayCompleted, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), LayawayCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := LayawayPlan{Status: tt.status, Deadline: tt.deadline}
			assert.Equal(t, tt.want, plan.EffectiveStatus(today))
		})
	}
}

func TestFinalAmount(t *testing.T) {
	assert.True(t, FinalAmount(dec("200000"), dec("10")).Equal(dec("180000")))
	assert.True(t, FinalAmount(dec("99.99"), dec("0")).Equal(dec("99.99")))
	assert.True(t, FinalAmount(dec("1500"), dec("100")).IsZero())
	assert.True(t, FinalAmount(dec("100"), dec("12.5")).Equal(dec("87.5")))
}
