package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bassista/jobsync/internal/model"
)

// Account is a user that can log in.
type Account struct {
	model.User
	Password string `json:"password" validate:"required"`
}

// OwnedApplication ties an application to the applicant's user id.
type OwnedApplication struct {
	model.Application
	ApplicantID string `json:"applicantId" validate:"required"`
	JobID       string `json:"jobId" validate:"required"`
}

// OwnedReferral ties a referral to the freelancer who submitted it.
type OwnedReferral struct {
	model.Referral
	AgentID string `json:"agentId" validate:"required"`
}

// Seed is the initial content of the dataset.
type Seed struct {
	Users        []Account          `json:"users" validate:"required,dive"`
	Companies    []model.Company    `json:"companies" validate:"dive"`
	Jobs         []model.Job        `json:"jobs" validate:"dive"`
	Applications []OwnedApplication `json:"applications" validate:"dive"`
	Referrals    []OwnedReferral    `json:"referrals" validate:"dive"`
}

// LoadSeedFile reads a JSON seed. Validation happens in New.
func LoadSeedFile(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed file: %w", err)
	}
	return seed, nil
}

func day(n int) time.Time {
	return time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func ptr(t time.Time) *time.Time { return &t }

// DefaultSeed is a small fixture covering every role and collection.
// Every account's password is "password".
func DefaultSeed() Seed {
	acme := model.Company{ID: "c-acme", Name: "Acme", Description: "Rockets and anvils", Website: "https://acme.example", Location: "Remote", UserID: "u-recruiter"}
	globex := model.Company{ID: "c-globex", Name: "Globex", Description: "Global exports", Location: "Springfield", UserID: "u-recruiter"}
	ref := func(c model.Company) model.CompanyRef { return model.CompanyRef{ID: c.ID, Name: c.Name, Logo: c.Logo} }

	titles := []struct {
		title, location, jobType string
		salary                   float64
		company                  model.Company
	}{
		{"Go Backend Engineer", "Remote", "Full Time", 120000, acme},
		{"Frontend Developer", "Berlin", "Full Time", 90000, acme},
		{"Data Engineer", "Remote", "Contract", 110000, globex},
		{"Site Reliability Engineer", "London", "Full Time", 130000, globex},
		{"QA Intern", "Springfield", "Internship", 30000, globex},
		{"Mobile Developer", "Remote", "Part Time", 70000, acme},
		{"Product Designer", "Berlin", "Full Time", 85000, acme},
		{"Go Platform Engineer", "Remote", "Full Time", 140000, globex},
		{"Support Engineer", "London", "Part Time", 50000, acme},
	}
	jobs := make([]model.Job, len(titles))
	for i, t := range titles {
		jobs[i] = model.Job{
			ID:           fmt.Sprintf("j-%d", i+1),
			Title:        t.title,
			Description:  t.title + " at " + t.company.Name,
			Location:     t.location,
			Salary:       t.salary,
			JobType:      t.jobType,
			Position:     1 + i%3,
			Experience:   i % 5,
			Requirements: []string{"communication"},
			Company:      ref(t.company),
			CreatedBy:    "u-recruiter",
			CreatedAt:    day(i),
		}
	}

	return Seed{
		Users: []Account{
			{User: model.User{ID: "u-student", FullName: "Sam Student", Email: "student@example.com", Role: model.RoleStudent}, Password: "password"},
			{User: model.User{ID: "u-recruiter", FullName: "Rae Recruiter", Email: "recruiter@example.com", Role: model.RoleRecruiter}, Password: "password"},
			{User: model.User{ID: "u-admin", FullName: "Ada Admin", Email: "admin@example.com", Role: model.RoleAdmin}, Password: "password"},
			{User: model.User{ID: "u-freelancer", FullName: "Fay Freelancer", Email: "freelancer@example.com", Role: model.RoleFreelancer}, Password: "password"},
		},
		Companies: []model.Company{acme, globex},
		Jobs:      jobs,
		Applications: []OwnedApplication{
			{Application: model.Application{ID: "a-1", Status: model.ApplicationPending, CreatedAt: day(10)}, ApplicantID: "u-student", JobID: "j-1"},
		},
		Referrals: []OwnedReferral{
			{AgentID: "u-freelancer", Referral: model.Referral{ID: "r-1", CandidateName: "Lin Placed", JobTitle: "Go Backend Engineer", CompanyName: "Acme", Status: model.ReferralPlaced, Salary: 120000, CommissionRate: 10, PayoutStatus: model.PayoutPaid, PlacedAt: ptr(day(3)), PaidAt: ptr(day(20))}},
			{AgentID: "u-freelancer", Referral: model.Referral{ID: "r-2", CandidateName: "Kim Pending", JobTitle: "Data Engineer", CompanyName: "Globex", Status: model.ReferralPlaced, Salary: 110000, CommissionRate: 8, PayoutStatus: model.PayoutPending, PlacedAt: ptr(day(12))}},
			{AgentID: "u-freelancer", Referral: model.Referral{ID: "r-3", CandidateName: "Jo Interview", JobTitle: "Frontend Developer", CompanyName: "Acme", Status: model.ReferralInterviewing, Salary: 90000, CommissionRate: 10}},
		},
	}
}
