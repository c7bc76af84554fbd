package main

import (
	"time"

	"challengeflow/analytics"
	"challengeflow/report"
	"challengeflow/snapshot"
)

type tokenResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
	ExpiresAt string `json:"expiresAt"`
}

type carrierResponse struct {
	CompanyID             string  `json:"companyId"`
	TotalFiled            int     `json:"totalFiled"`
	Won                   int     `json:"won"`
	Lost                  int     `json:"lost"`
	Pending               int     `json:"pending"`
	Withdrawn             int     `json:"withdrawn"`
	Unrecognized          int     `json:"unrecognized"`
	SuccessRate           int     `json:"successRate"`
	SeverityPointsRemoved float64 `json:"severityPointsRemoved"`
	EstimatedSavings      float64 `json:"estimatedSavings"`
	CalculatedAt          string  `json:"calculatedAt"`
}

func newCarrierResponse(a analytics.CarrierAnalytics) carrierResponse {
	return carrierResponse{
		CompanyID:             a.CompanyID,
		TotalFiled:            a.TotalFiled,
		Won:                   a.Won,
		Lost:                  a.Lost,
		Pending:               a.Pending,
		Withdrawn:             a.Withdrawn,
		Unrecognized:          a.Unrecognized,
		SuccessRate:           a.SuccessRate,
		SeverityPointsRemoved: a.SeverityPointsRemoved,
		EstimatedSavings:      a.EstimatedSavings,
		CalculatedAt:          a.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

type trendResponse struct {
	Month       int `json:"month"`
	Year        int `json:"year"`
	Filed       int `json:"filed"`
	Won         int `json:"won"`
	Lost        int `json:"lost"`
	SuccessRate int `json:"successRate"`
}

type monthlyReportResponse struct {
	ID                             string  `json:"id"`
	CompanyID                      string  `json:"companyId"`
	Month                          int     `json:"month"`
	Year                           int     `json:"year"`
	ChallengesFiled                int     `json:"challengesFiled"`
	ChallengesWon                  int     `json:"challengesWon"`
	ChallengesLost                 int     `json:"challengesLost"`
	ChallengesPending              int     `json:"challengesPending"`
	SeverityPointsRemoved          float64 `json:"severityPointsRemoved"`
	EstimatedPercentileImprovement float64 `json:"estimatedPercentileImprovement"`
	EstimatedInsuranceSavings      float64 `json:"estimatedInsuranceSavings"`
	CreatedAt                      string  `json:"createdAt"`
}

func newMonthlyReportResponse(r report.MonthlyReport) monthlyReportResponse {
	return monthlyReportResponse{
		ID:                             r.ID,
		CompanyID:                      r.CompanyID,
		Month:                          r.Month,
		Year:                           r.Year,
		ChallengesFiled:                r.ChallengesFiled,
		ChallengesWon:                  r.ChallengesWon,
		ChallengesLost:                 r.ChallengesLost,
		ChallengesPending:              r.ChallengesPending,
		SeverityPointsRemoved:          r.SeverityPointsRemoved,
		EstimatedPercentileImprovement: r.EstimatedPercentileImprovement,
		EstimatedInsuranceSavings:      r.EstimatedInsuranceSavings,
		CreatedAt:                      r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type triageResponse struct {
	TotalResolved      int `json:"totalResolved"`
	CorrectPredictions int `json:"correctPredictions"`
	Accuracy           int `json:"accuracy"`
	OverPredicted      int `json:"overPredicted"`
	UnderPredicted     int `json:"underPredicted"`
	Neutral            int `json:"neutral"`
	Coverage           int `json:"coverage"`
}

type systemResponse struct {
	Period             string                      `json:"period"`
	PeriodStart        string                      `json:"periodStart"`
	PeriodEnd          string                      `json:"periodEnd"`
	TotalFiled         int                         `json:"totalFiled"`
	TotalWon           int                         `json:"totalWon"`
	TotalLost          int                         `json:"totalLost"`
	TotalPending       int                         `json:"totalPending"`
	OverallSuccessRate int                         `json:"overallSuccessRate"`
	ByViolationType    []snapshot.GroupStat        `json:"byViolationType"`
	ByJurisdiction     []snapshot.JurisdictionStat `json:"byJurisdiction"`
	ByChallengeType    []snapshot.GroupStat        `json:"byChallengeType"`
	UpdatedAt          string                      `json:"updatedAt"`
}

func newSystemResponse(s snapshot.Snapshot) systemResponse {
	return systemResponse{
		Period:             string(s.Period),
		PeriodStart:        s.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:          s.PeriodEnd.UTC().Format(time.RFC3339),
		TotalFiled:         s.TotalFiled,
		TotalWon:           s.TotalWon,
		TotalLost:          s.TotalLost,
		TotalPending:       s.TotalPending,
		OverallSuccessRate: s.OverallSuccessRate,
		ByViolationType:    s.ByViolationType,
		ByJurisdiction:     s.ByJurisdiction,
		ByChallengeType:    s.ByChallengeType,
		UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
