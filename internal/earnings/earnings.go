// Package earnings computes freelancer commissions from referrals.
package earnings

import (
	"math"
	"strings"
	"time"

	"github.com/bassista/jobsync/internal/model"
)

// Commission is salary × rate% for a placed referral, zero otherwise. Rounded to cents.
func Commission(r model.Referral) float64 {
	if r.Status != model.ReferralPlaced {
		return 0
	}
	return roundCents(r.Salary * r.CommissionRate / 100)
}

type Summary struct {
	TotalEarned float64
	Paid        float64
	Pending     float64
	Referrals   int
	Placements  int
	ByStatus    map[model.ReferralStatus]int
}

func Summarize(refs []model.Referral) Summary {
	s := Summary{ByStatus: make(map[model.ReferralStatus]int)}
	for _, r := range refs {
		s.Referrals++
		s.ByStatus[r.Status]++
		c := Commission(r)
		if c == 0 {
			continue
		}
		s.Placements++
		s.TotalEarned += c
		if r.PayoutStatus == model.PayoutPaid {
			s.Paid += c
		} else {
			s.Pending += c
		}
	}
	s.TotalEarned = roundCents(s.TotalEarned)
	s.Paid = roundCents(s.Paid)
	s.Pending = roundCents(s.Pending)
	return s
}

// Filter selects referrals. Zero fields match everything.
// From and To bound PlacedAt inclusively; referrals never placed fail a date bound.
type Filter struct {
	Status model.ReferralStatus
	Payout model.PayoutStatus
	From   time.Time
	To     time.Time
	Search string
}

func (f Filter) Match(r model.Referral) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Payout != "" && r.PayoutStatus != f.Payout {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		if r.PlacedAt == nil {
			return false
		}
		if !f.From.IsZero() && r.PlacedAt.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && r.PlacedAt.After(f.To) {
			return false
		}
	}
	if q := strings.TrimSpace(strings.ToLower(f.Search)); q != "" {
		hay := strings.ToLower(r.CandidateName + "\x00" + r.JobTitle + "\x00" + r.CompanyName)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Select returns the referrals matching f, in their original order.
func Select(refs []model.Referral, f Filter) []model.Referral {
	out := make([]model.Referral, 0, len(refs))
	for _, r := range refs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
