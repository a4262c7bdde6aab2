package ports

import (
	"context"

	"github.com/jhoicas/Convenios-api/internal/application/dto"
)

// ExpirationReportGenerator genera la representación PDF del reporte de vencimientos.
type ExpirationReportGenerator interface {
	GenerateExpirationReport(ctx context.Context, report *dto.ExpirationReport) ([]byte, error)
}
