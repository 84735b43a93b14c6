package model

import "time"

// Entity is anything that can live in a collection store.
// IDs must be unique within one collection.
type Entity interface {
	EntityID() string
}

type Role string

const (
	RoleStudent    Role = "student"
	RoleRecruiter  Role = "recruiter"
	RoleAdmin      Role = "admin"
	RoleFreelancer Role = "freelancer"
)

// User is the logged-in account as returned by the login endpoint.
type User struct {
	ID       string `json:"_id" validate:"required"`
	FullName string `json:"fullname"`
	Email    string `json:"email" validate:"required,email"`
	Role     Role   `json:"role" validate:"required,oneof=student recruiter admin freelancer"`
}

func (u User) EntityID() string { return u.ID }

// CompanyRef is the company summary embedded in a job.
type CompanyRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type Job struct {
	ID           string     `json:"_id" validate:"required"`
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Salary       float64    `json:"salary"`
	JobType      string     `json:"jobType"`
	Position     int        `json:"position"`
	Experience   int        `json:"experienceLevel"`
	Requirements []string   `json:"requirements"`
	Company      CompanyRef `json:"company"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (j Job) EntityID() string { return j.ID }

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

type Application struct {
	ID        string            `json:"_id" validate:"required"`
	Job       Job               `json:"job"`
	Applicant string            `json:"applicant"`
	Status    ApplicationStatus `json:"status" validate:"required,oneof=pending accepted rejected"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (a Application) EntityID() string { return a.ID }

type Company struct {
	ID          string `json:"_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Location    string `json:"location,omitempty"`
	Logo        string `json:"logo,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

func (c Company) EntityID() string { return c.ID }

type ReferralStatus string

const (
	ReferralSubmitted    ReferralStatus = "submitted"
	ReferralInterviewing ReferralStatus = "interviewing"
	ReferralPlaced       ReferralStatus = "placed"
	ReferralRejected     ReferralStatus = "rejected"
)

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
)

// Referral is a candidate submitted by a freelancer agent.
// CommissionRate is a percentage of Salary.
type Referral struct {
	ID             string         `json:"_id" validate:"required"`
	CandidateName  string         `json:"candidateName" validate:"required"`
	JobTitle       string         `json:"jobTitle"`
	CompanyName    string         `json:"companyName"`
	Status         ReferralStatus `json:"status" validate:"required,oneof=submitted interviewing placed rejected"`
	Salary         float64        `json:"salary" validate:"gte=0"`
	CommissionRate float64        `json:"commissionRate" validate:"gte=0,lte=100"`
	PayoutStatus   PayoutStatus   `json:"payoutStatus" validate:"omitempty,oneof=pending paid"`
	PlacedAt       *time.Time     `json:"placedAt,omitempty"`
	PaidAt         *time.Time     `json:"paidAt,omitempty"`
}

func (r Referral) EntityID() string { return r.ID }
