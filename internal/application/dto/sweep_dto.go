package dto

import "time"

// SweepSummary resultado de una ejecución del barrido de vencimientos.
type SweepSummary struct {
	AgreementsScanned    int            `json:"agreements_scanned"`
	NotificationsEmitted int            `json:"notifications_emitted"`
	AgreementsExpired    int            `json:"agreements_expired"`
	AgreementsFailed     int            `json:"agreements_failed"`
	CompaniesDisabled    int            `json:"companies_disabled"`
	Failures             []SweepFailure `json:"failures"`
	StartedAt            time.Time      `json:"started_at"`
	FinishedAt           time.Time      `json:"finished_at"`
}

// SweepFailure error al procesar un convenio concreto.
type SweepFailure struct {
	ConvenioID string `json:"convenio_id"`
	Error      string `json:"error"`
}
