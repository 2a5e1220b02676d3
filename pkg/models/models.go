package models

import "time"

// Resume represents a candidate resume
type Resume struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Filename  *string   `json:"filename"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResumeUpdate is a partial update; nil fields are left unchanged.
// IsActive true makes the resume the only active one.
type ResumeUpdate struct {
	Content  *string `json:"content"`
	Filename *string `json:"filename"`
	IsActive *bool   `json:"is_active"`
}

// JobLead represents a captured job posting that has not been committed to yet
type JobLead struct {
	ID                      int64     `json:"id"`
	CompanyName             *string   `json:"company_name"`
	RoleName                *string   `json:"role_name"`
	JobPosting              string    `json:"job_posting"`
	URL                     *string   `json:"url"`
	MatchPercentage         *float64  `json:"match_percentage"`
	MatchReasoning          *string   `json:"match_reasoning"`
	IsPromoted              bool      `json:"is_promoted"`
	PromotedToApplicationID *int64    `json:"promoted_to_application_id"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// LeadUpdate is a partial update of the captured lead fields; nil fields are left unchanged
type LeadUpdate struct {
	CompanyName *string `json:"company_name"`
	RoleName    *string `json:"role_name"`
	JobPosting  *string `json:"job_posting"`
	URL         *string `json:"url"`
}

// JobApplication represents a tracked job pursuit
type JobApplication struct {
	ID              int64          `json:"id"`
	CompanyName     string         `json:"company_name"`
	RoleName        string         `json:"role_name"`
	Stage           Stage          `json:"stage"`
	StageDate       time.Time      `json:"stage_date"`
	JobAd           *string        `json:"job_ad"`
	CoverLetter     *string        `json:"cover_letter"`
	Notes           *string        `json:"notes"`
	MatchPercentage *float64       `json:"match_percentage"`
	MatchReasoning  *string        `json:"match_reasoning"`
	AdditionalInfo  map[string]any `json:"additional_info"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ApplicationUpdate is a partial update; nil fields are left unchanged
type ApplicationUpdate struct {
	CompanyName     *string        `json:"company_name"`
	RoleName        *string        `json:"role_name"`
	Stage           *Stage         `json:"stage"`
	JobAd           *string        `json:"job_ad"`
	CoverLetter     *string        `json:"cover_letter"`
	Notes           *string        `json:"notes"`
	MatchPercentage *float64       `json:"match_percentage"`
	MatchReasoning  *string        `json:"match_reasoning"`
	AdditionalInfo  map[string]any `json:"additional_info"`
}

// StageHistoryEntry is one audit row of an application's stage changes
type StageHistoryEntry struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"job_application_id"`
	PreviousStage *Stage    `json:"previous_stage"`
	NewStage      Stage     `json:"new_stage"`
	ChangedAt     time.Time `json:"changed_at"`
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
