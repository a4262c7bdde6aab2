package dto

import "time"

// ExpirationReport reporte de convenios aprobados próximos a vencer.
type ExpirationReport struct {
	GeneratedAt time.Time
	WindowDays  int
	Items       []ExpirationReportItem
}

// ExpirationReportItem una fila del reporte.
type ExpirationReportItem struct {
	ConvenioID    string
	ConvenioName  string
	CompanyName   string
	EndDate       time.Time
	DaysRemaining int
	Priority      string
}
