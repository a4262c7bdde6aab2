package convenio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/internal/domain"
	domconvenio "github.com/jhoicas/Convenios-api/internal/domain/convenio"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

// MaxReportWindowDays ventana máxima aceptada para el reporte.
const MaxReportWindowDays = 365

// ReportUseCase genera el reporte PDF de convenios aprobados próximos a vencer.
type ReportUseCase struct {
	convenioRepo repository.ConvenioRepository
	companyRepo  repository.CompanyRepository
	generator    ports.ExpirationReportGenerator
	thresholds   domconvenio.Thresholds
	now          func() time.Time
}

// ReportOption configura dependencias opcionales del reporte.
type ReportOption func(*ReportUseCase)

// WithReportClock reemplaza el reloj (tests).
func WithReportClock(now func() time.Time) ReportOption {
	return func(uc *ReportUseCase) { uc.now = now }
}

// NewReportUseCase construye el caso de uso del reporte.
func NewReportUseCase(
	convenioRepo repository.ConvenioRepository,
	companyRepo repository.CompanyRepository,
	generator ports.ExpirationReportGenerator,
	thresholds domconvenio.Thresholds,
	opts ...ReportOption,
) *ReportUseCase {
	if thresholds.Validate() != nil {
		thresholds = domconvenio.DefaultThresholds()
	}
	uc := &ReportUseCase{
		convenioRepo: convenioRepo,
		companyRepo:  companyRepo,
		generator:    generator,
		thresholds:   thresholds,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// BuildReport arma el reporte para los próximos windowDays días (0 = umbral medio),
// ordenado por días restantes ascendente.
func (uc *ReportUseCase) BuildReport(ctx context.Context, windowDays int) (*dto.ExpirationReport, error) {
	if windowDays == 0 {
		windowDays = uc.thresholds.Medium
	}
	if windowDays < 0 || windowDays > MaxReportWindowDays {
		return nil, fmt.Errorf("%w: días debe estar entre 1 y %d", domain.ErrInvalidInput, MaxReportWindowDays)
	}

	now := uc.now()
	convenios, err := uc.convenioRepo.ListEndingBetween(ctx, entity.ConvenioStatusAprobado, now, now.AddDate(0, 0, windowDays))
	if err != nil {
		return nil, fmt.Errorf("reporte: listar convenios: %w", err)
	}

	names := make(map[string]string)
	items := make([]dto.ExpirationReportItem, 0, len(convenios))
	for _, c := range convenios {
		if c.EndDate == nil {
			continue
		}
		name, ok := names[c.CompanyID]
		if !ok {
			company, err := uc.companyRepo.GetByID(ctx, c.CompanyID)
			if err != nil {
				return nil, fmt.Errorf("reporte: obtener empresa: %w", err)
			}
			name = c.CompanyID
			if company != nil {
				name = company.Name
			}
			names[c.CompanyID] = name
		}
		days := domconvenio.DaysRemaining(*c.EndDate, now)
		items = append(items, dto.ExpirationReportItem{
			ConvenioID:    c.ID,
			ConvenioName:  c.Name,
			CompanyName:   name,
			EndDate:       *c.EndDate,
			DaysRemaining: days,
			Priority:      domconvenio.PriorityFor(days, uc.thresholds),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysRemaining < items[j].DaysRemaining
	})

	return &dto.ExpirationReport{GeneratedAt: now, WindowDays: windowDays, Items: items}, nil
}

// ExpiringReportPDF genera el PDF y su nombre de archivo.
func (uc *ReportUseCase) ExpiringReportPDF(ctx context.Context, windowDays int) ([]byte, string, error) {
	report, err := uc.BuildReport(ctx, windowDays)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateExpirationReport(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación fallida: %w", err)
	}
	filename := fmt.Sprintf("convenios_por_vencer_%s.pdf", report.GeneratedAt.Format("20060102"))
	return pdfBytes, filename, nil
}
