package earnings

import (
	"testing"
	"time"

	"github.com/bassista/jobsync/internal/model"
	"github.com/stretchr/testify/assert"
)

func at(day int) *time.Time {
	t := time.Date(2026, time.March, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func referrals() []model.Referral {
	return []model.Referral{
		{ID: "1", CandidateName: "Ada Lovelace", JobTitle: "Go Engineer", CompanyName: "Acme", Status: model.ReferralPlaced, Salary: 120000, CommissionRate: 10, PayoutStatus: model.PayoutPaid, PlacedAt: at(1), PaidAt: at(20)},
		{ID: "2", CandidateName: "Alan Turing", JobTitle: "Data Scientist", CompanyName: "Globex", Status: model.ReferralPlaced, Salary: 95000.50, CommissionRate: 8.5, PayoutStatus: model.PayoutPending, PlacedAt: at(15)},
		{ID: "3", CandidateName: "Grace Hopper", JobTitle: "Compiler Dev", CompanyName: "Acme", Status: model.ReferralInterviewing, Salary: 150000, CommissionRate: 12},
		{ID: "4", CandidateName: "Linus", JobTitle: "Kernel Dev", CompanyName: "Initech", Status: model.ReferralRejected, Salary: 100000, CommissionRate: 10},
	}
}

func TestCommission(t *testing.T) {
	refs := referrals()
	assert.Equal(t, 12000.0, Commission(refs[0]))
	assert.Equal(t, 8075.04, Commission(refs[1]))
	assert.Equal(t, 0.0, Commission(refs[2]))
	assert.Equal(t, 0.0, Commission(refs[3]))
}

func TestSummarize(t *testing.T) {
	s := Summarize(referrals())

	assert.Equal(t, 20075.04, s.TotalEarned)
	assert.Equal(t, 12000.0, s.Paid)
	assert.Equal(t, 8075.04, s.Pending)
	assert.Equal(t, 4, s.Referrals)
	assert.Equal(t, 2, s.Placements)
	assert.Equal(t, 2, s.ByStatus[model.ReferralPlaced])
	assert.Equal(t, 1, s.ByStatus[model.ReferralRejected])

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalEarned)
	assert.NotNil(t, empty.ByStatus)
}

func TestSelect(t *testing.T) {
	refs := referrals()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3", "4"}},
		{"status", Filter{Status: model.ReferralPlaced}, []string{"1", "2"}},
		{"payout", Filter{Payout: model.PayoutPending}, []string{"2"}},
		{"search company case-insensitive", Filter{Search: "ACME"}, []string{"1", "3"}},
		{"search job title", Filter{Search: "kernel"}, []string{"4"}},
		{"from", Filter{From: *at(10)}, []string{"2"}},
		{"range inclusive", Filter{From: *at(1), To: *at(15)}, []string{"1", "2"}},
		{"to", Filter{To: *at(5)}, []string{"1"}},
		{"combined", Filter{Status: model.ReferralPlaced, Search: "turing"}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Select(refs, tt.filter) {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
