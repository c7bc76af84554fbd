package analytics

import (
	"context"
	"time"

	"challengeflow/dispute"
)

// TriageAccuracy scores the stored priority heuristic against resolved outcomes.
type TriageAccuracy struct {
	TotalResolved      int
	CorrectPredictions int
	Accuracy           int
	// OverPredicted counts high scores that were denied.
	OverPredicted int
	// UnderPredicted counts low scores that were accepted.
	UnderPredicted int
	// Neutral counts scores in the no-claim zone. They are included in
	// CorrectPredictions.
	Neutral int
	// Coverage is the share of resolved challenges on which the heuristic
	// made a strong prediction either way.
	Coverage int
}

type prediction int

const (
	predictionCorrect prediction = iota
	predictionNeutral
	predictionOver
	predictionUnder
)

func (c Config) classify(score float64, won bool) prediction {
	switch {
	case score >= c.HighScore:
		if won {
			return predictionCorrect
		}
		return predictionOver
	case score < c.LowScore:
		if won {
			return predictionUnder
		}
		return predictionCorrect
	default:
		return predictionNeutral
	}
}

// TriageAccuracy evaluates one company's resolved, scored challenges. It is
// read-only.
func (s *Service) TriageAccuracy(ctx context.Context, companyID string) (out TriageAccuracy, err error) {
	defer s.observe(opTriage, time.Now(), &err)

	filter := dispute.Filter{
		CompanyID:        companyID,
		SubmittedOnly:    true,
		Statuses:         []dispute.Status{dispute.StatusAccepted, dispute.StatusDenied},
		HasPriorityScore: true,
	}
	err = s.scan(ctx, opTriage, filter, func(rec dispute.Record) {
		var score float64
		if rec.PriorityScore != nil {
			score = *rec.PriorityScore
		}
		out.TotalResolved++
		switch s.cfg.classify(score, rec.Status().Outcome() == dispute.OutcomeWon) {
		case predictionCorrect:
			out.CorrectPredictions++
		case predictionNeutral:
			out.Neutral++
			out.CorrectPredictions++
		case predictionOver:
			out.OverPredicted++
		case predictionUnder:
			out.UnderPredicted++
		}
	})
	if err != nil {
		return TriageAccuracy{}, err
	}

	out.Accuracy = percent(out.CorrectPredictions, out.TotalResolved)
	out.Coverage = percent(out.TotalResolved-out.Neutral, out.TotalResolved)
	return out, nil
}
