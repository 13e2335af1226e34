package dashboard

import "study-dashboard/internal/gateway"

// LookupAdherence projects a participant's record out of the adherence
// report. A nil report or a missing participant yields absent, which the
// display layer renders as nothing rather than an error.
func LookupAdherence(report gateway.AdherenceReport, participantID string) (gateway.AdherenceRecord, bool) {
	if report == nil {
		return gateway.AdherenceRecord{}, false
	}
	record, ok := report[participantID]
	return record, ok
}
