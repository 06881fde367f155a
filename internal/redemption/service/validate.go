package service

import (
	"fmt"

	"github.com/google/uuid"

	ballotmodels "votilio/internal/ballot/models"
	electionmodels "votilio/internal/election/models"
)

// validateSelections checks a submitted ballot against the election
// snapshot. It runs before the credential is touched so a malformed ballot
// never costs the voter their code.
func validateSelections(election *electionmodels.Election, selections []ballotmodels.Selection) error {
	seen := make(map[uuid.UUID]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.PositionID] {
			return fmt.Errorf("duplicate selection for position %s", sel.PositionID)
		}
		seen[sel.PositionID] = true

		position := election.PositionByID(sel.PositionID)
		if position == nil {
			return fmt.Errorf("unknown position %s", sel.PositionID)
		}

		if sel.Abstain {
			if sel.CandidateID != uuid.Nil {
				return fmt.Errorf("abstention for position %s names a candidate", sel.PositionID)
			}
			continue
		}
		if sel.CandidateID == uuid.Nil {
			return fmt.Errorf("selection for position %s names no candidate", sel.PositionID)
		}
		if !position.HasCandidate(sel.CandidateID) {
			return fmt.Errorf("candidate %s does not run for position %s", sel.CandidateID, sel.PositionID)
		}
	}

	for _, position := range election.Positions {
		if position.Required && !seen[position.ID] {
			return fmt.Errorf("required position %q has no selection", position.Name)
		}
	}
	return nil
}
