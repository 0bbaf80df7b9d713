package startup

import (
	"errors"

	"github.com/venturelens/venturelens/internal/analysis"
)

var (
	ErrNotFound = errors.New("startup not found")
	ErrInvalid  = errors.New("invalid submission")
)

// Startup is one submission row. A founder's current startup is the newest.
type Startup struct {
	ID          string               `db:"id" json:"id"`
	FounderID   string               `db:"founder_id" json:"founder_id"`
	Name        string               `db:"name" json:"name"`
	Description string               `db:"description" json:"description"`
	Industry    string               `db:"industry" json:"industry"`
	Stage       string               `db:"stage" json:"stage"`
	WebsiteURL  string               `db:"website_url" json:"website_url"`
	LinkedInURL string               `db:"linkedin_url" json:"linkedin_url"`
	Funding     string               `db:"funding_raised" json:"funding_raised"` // free text, e.g. "$1.5M"
	DeckURL     string               `db:"deck_url" json:"deck_url"`             // blob key
	AIScore     int                  `db:"ai_score" json:"ai_score"`
	TrustSignal analysis.TrustSignal `db:"trust_signal" json:"trust_signal"`
	CreatedAt   int64                `db:"created_at" json:"created_at"` // unix millis
}

// Counts tallies anomalies by priority.
type Counts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

func (c *Counts) add(p analysis.Priority, n int) {
	switch p {
	case analysis.PriorityHigh:
		c.High += n
	case analysis.PriorityMedium:
		c.Medium += n
	default:
		c.Low += n
	}
	c.Total += n
}

// Detail is a startup with its full analysis.
type Detail struct {
	Startup
	Scores        analysis.ScoreSet  `json:"scores"`
	Reasoning     analysis.Reasoning `json:"reasoning"`
	Anomalies     []analysis.Anomaly `json:"anomalies"`
	AnomalyCounts Counts             `json:"anomaly_counts"`
}

// Alert is an anomaly with the startup it was raised against.
type Alert struct {
	analysis.Anomaly
	StartupID   string `json:"startup_id"`
	StartupName string `json:"startup_name"`
	CreatedAt   int64  `json:"created_at"`
}

// Filter narrows the deal flow listing. Zero values mean "any".
type Filter struct {
	Industry string
	Stage    string
	Trust    analysis.TrustSignal
	MinScore int
	Query    string // substring of name or description
	Limit    int
	Offset   int
}

// Summary is the portfolio header.
type Summary struct {
	Count        int     `json:"count"`
	AvgScore     int     `json:"avg_score"`
	TotalFunding float64 `json:"total_funding"`
}
