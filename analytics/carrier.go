package analytics

import (
	"context"
	"time"

	"challengeflow/dispute"
)

// CarrierAnalytics summarises every submitted challenge of one company.
type CarrierAnalytics struct {
	CompanyID  string
	TotalFiled int
	Won        int
	Lost       int
	Pending    int
	Withdrawn  int
	// Unrecognized counts challenges whose status is outside the known set.
	// They are part of TotalFiled but of no other bucket.
	Unrecognized int

	SuccessRate           int
	SeverityPointsRemoved float64
	EstimatedSavings      float64
	CalculatedAt          time.Time
}

type carrierTally struct {
	filed, won, lost, pending, withdrawn, unrecognized int
	points                                             float64
}

func (t *carrierTally) add(rec dispute.Record) {
	t.filed++
	switch rec.Status().Outcome() {
	case dispute.OutcomeWon:
		t.won++
		t.points += rec.SeverityWeight
	case dispute.OutcomeLost:
		t.lost++
	case dispute.OutcomeOpen:
		t.pending++
	case dispute.OutcomeWithdrawn:
		t.withdrawn++
	case dispute.OutcomeUnrecognized:
		t.unrecognized++
	}
}

// CarrierAnalytics reduces one company's submitted challenges in a single pass.
func (s *Service) CarrierAnalytics(ctx context.Context, companyID string) (out CarrierAnalytics, err error) {
	defer s.observe(opCarrier, time.Now(), &err)

	var t carrierTally
	filter := dispute.Filter{CompanyID: companyID, SubmittedOnly: true}
	if err = s.scan(ctx, opCarrier, filter, t.add); err != nil {
		return CarrierAnalytics{}, err
	}

	return CarrierAnalytics{
		CompanyID:             companyID,
		TotalFiled:            t.filed,
		Won:                   t.won,
		Lost:                  t.lost,
		Pending:               t.pending,
		Withdrawn:             t.withdrawn,
		Unrecognized:          t.unrecognized,
		SuccessRate:           successRate(t.won, t.lost),
		SeverityPointsRemoved: t.points,
		EstimatedSavings:      s.cfg.savings(t.points),
		CalculatedAt:          s.now(),
	}, nil
}
