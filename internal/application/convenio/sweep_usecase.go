package convenio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/application/notification"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/internal/domain"
	domconvenio "github.com/jhoicas/Convenios-api/internal/domain/convenio"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// NotificationEmitter contrato mínimo que el barrido necesita para emitir avisos.
// Lo implementa *notification.Service.
type NotificationEmitter interface {
	Emit(ctx context.Context, in notification.EmitInput) (*entity.Notification, error)
}

// SweepUseCase barrido de vencimiento de convenios.
//
// Recorre los convenios APROBADO con fecha de fin y, uno por uno y en orden:
//   - días < 0  → VENCIDO, desactiva la empresa si se queda sin convenios aprobados
//     y avisa (ALTA) a todos los directores y a la empresa.
//   - días >= 0 → si los días coinciden con un día de disparo y no hubo aviso hoy,
//     avisa a todos los directores y a la empresa con la prioridad según umbrales.
//
// No hay transacción que envuelva los efectos de un convenio: el barrido es
// best-effort y al-menos-una-vez. Un error en un convenio se registra y se continúa.
type SweepUseCase struct {
	convenioRepo repository.ConvenioRepository
	companyRepo  repository.CompanyRepository
	directorRepo repository.DirectorRepository
	notifRepo    repository.NotificationRepository
	emitter      NotificationEmitter
	thresholds   domconvenio.Thresholds
	metrics      ports.SweepMetrics
	log          *logger.Logger
	loc          *time.Location
	now          func() time.Time
}

// SweepOption configura dependencias opcionales del barrido.
type SweepOption func(*SweepUseCase)

// WithSweepClock reemplaza el reloj (tests).
func WithSweepClock(now func() time.Time) SweepOption {
	return func(uc *SweepUseCase) { uc.now = now }
}

// WithLocation zona horaria que define "hoy" para la deduplicación diaria.
func WithLocation(loc *time.Location) SweepOption {
	return func(uc *SweepUseCase) {
		if loc != nil {
			uc.loc = loc
		}
	}
}

// WithSweepMetrics inyecta el registrador de métricas.
func WithSweepMetrics(m ports.SweepMetrics) SweepOption {
	return func(uc *SweepUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// NewSweepUseCase construye el barrido. Umbrales inválidos se reemplazan por 7/15/30.
func NewSweepUseCase(
	convenioRepo repository.ConvenioRepository,
	companyRepo repository.CompanyRepository,
	directorRepo repository.DirectorRepository,
	notifRepo repository.NotificationRepository,
	emitter NotificationEmitter,
	thresholds domconvenio.Thresholds,
	log *logger.Logger,
	opts ...SweepOption,
) *SweepUseCase {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("convenio_sweep")
	if err := thresholds.Validate(); err != nil {
		log.Warn().Err(err).Msg("umbrales de vencimiento inválidos, se usan 7/15/30")
		thresholds = domconvenio.DefaultThresholds()
	}
	if !thresholds.IsDefault() {
		// Los días fijos 3 y 1 siguen activos junto a los umbrales configurados.
		log.Warn().
			Int("urgent", thresholds.Urgent).
			Int("high", thresholds.High).
			Int("medium", thresholds.Medium).
			Msg("umbrales personalizados: los avisos fijos de 3 y 1 día se mantienen")
	}
	uc := &SweepUseCase{
		convenioRepo: convenioRepo,
		companyRepo:  companyRepo,
		directorRepo: directorRepo,
		notifRepo:    notifRepo,
		emitter:      emitter,
		thresholds:   thresholds,
		metrics:      ports.NopMetrics{},
		log:          log,
		loc:          time.Local,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Thresholds umbrales efectivos.
func (uc *SweepUseCase) Thresholds() domconvenio.Thresholds {
	return uc.thresholds
}

// convenioResult efectos aplicados a un convenio.
type convenioResult struct {
	emitted         int
	expired         bool
	companyDisabled bool
}

// Run ejecuta una pasada completa. Solo devuelve error si no se pudo obtener el
// conjunto de trabajo (convenios o directores); los errores por convenio quedan en
// el resumen.
func (uc *SweepUseCase) Run(ctx context.Context) (*dto.SweepSummary, error) {
	started := uc.now()
	summary := &dto.SweepSummary{StartedAt: started, Failures: []dto.SweepFailure{}}

	convenios, err := uc.convenioRepo.FindByStatusWithEndDate(ctx, entity.ConvenioStatusAprobado)
	if err != nil {
		uc.metrics.SweepFinished("error", uc.now().Sub(started))
		return nil, fmt.Errorf("barrido: listar convenios aprobados: %w", err)
	}
	directors, err := uc.directorRepo.List(ctx)
	if err != nil {
		uc.metrics.SweepFinished("error", uc.now().Sub(started))
		return nil, fmt.Errorf("barrido: listar directores: %w", err)
	}

	for _, c := range convenios {
		summary.AgreementsScanned++

		res, err := uc.processConvenio(ctx, c, directors, started)
		summary.NotificationsEmitted += res.emitted
		if res.expired {
			summary.AgreementsExpired++
		}
		if res.companyDisabled {
			summary.CompaniesDisabled++
		}
		if err != nil {
			summary.AgreementsFailed++
			summary.Failures = append(summary.Failures, dto.SweepFailure{ConvenioID: c.ID, Error: err.Error()})
			uc.metrics.ConvenioFailed()
			uc.log.Error().Err(err).
				Str("convenio_id", c.ID).
				Str("company_id", c.CompanyID).
				Msg("error procesando convenio, se continúa con el siguiente")
		}
	}

	summary.FinishedAt = uc.now()
	uc.metrics.SweepFinished("ok", uc.now().Sub(started))
	uc.log.Info().
		Int("agreements_scanned", summary.AgreementsScanned).
		Int("notifications_emitted", summary.NotificationsEmitted).
		Int("agreements_expired", summary.AgreementsExpired).
		Int("agreements_failed", summary.AgreementsFailed).
		Int("companies_disabled", summary.CompaniesDisabled).
		Msg("barrido de convenios finalizado")
	return summary, nil
}

func (uc *SweepUseCase) processConvenio(
	ctx context.Context,
	c *entity.Convenio,
	directors []*entity.Director,
	now time.Time,
) (convenioResult, error) {
	if c.EndDate == nil {
		return convenioResult{}, nil
	}
	days := domconvenio.DaysRemaining(*c.EndDate, now)

	if domconvenio.IsExpired(days) {
		company, err := uc.loadCompany(ctx, c.CompanyID)
		if err != nil {
			return convenioResult{}, err
		}
		return uc.expire(ctx, c, company, directors)
	}
	return uc.warn(ctx, c, directors, days, now)
}

func (uc *SweepUseCase) loadCompany(ctx context.Context, companyID string) (*entity.Company, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa %s: %w", companyID, err)
	}
	if company == nil {
		return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrNotFound)
	}
	return company, nil
}

// expire aplica APROBADO → VENCIDO y sus efectos en cascada.
func (uc *SweepUseCase) expire(
	ctx context.Context,
	c *entity.Convenio,
	company *entity.Company,
	directors []*entity.Director,
) (convenioResult, error) {
	var res convenioResult

	err := uc.convenioRepo.UpdateStatus(ctx, c.ID, entity.ConvenioStatusAprobado, entity.ConvenioStatusVencido)
	if errors.Is(err, domain.ErrConflict) {
		// Otro proceso ya lo venció en esta ventana; sus efectos son de ese proceso.
		uc.log.Info().Str("convenio_id", c.ID).Msg("convenio ya no está APROBADO, se omite")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("marcar vencido: %w", err)
	}
	res.expired = true
	uc.metrics.ConvenioExpired()

	remaining, err := uc.convenioRepo.CountByCompanyAndStatus(ctx, company.ID, entity.ConvenioStatusAprobado)
	if err != nil {
		return res, fmt.Errorf("contar convenios aprobados de la empresa: %w", err)
	}
	if remaining == 0 && company.Enabled {
		if err := uc.companyRepo.SetEnabled(ctx, company.ID, false); err != nil {
			return res, fmt.Errorf("deshabilitar empresa: %w", err)
		}
		res.companyDisabled = true
		uc.metrics.CompanyDisabled()
		uc.log.Info().
			Str("company_id", company.ID).
			Str("convenio_id", c.ID).
			Msg("empresa deshabilitada: sin convenios aprobados")
	}

	payload := buildPayload(c, company, 0)
	emitted, err := uc.broadcast(ctx, directors, company, notification.EmitInput{
		Type:     entity.NotificationConvenioVencido,
		Title:    domconvenio.ExpiredTitle(),
		Message:  domconvenio.ExpiredMessage(c.Name, company.Name),
		Priority: entity.PriorityAlta,
		Payload:  payload,
	})
	res.emitted = emitted
	return res, err
}

// warn emite el aviso de próximo vencimiento si hoy es día de disparo y no se avisó hoy.
func (uc *SweepUseCase) warn(
	ctx context.Context,
	c *entity.Convenio,
	directors []*entity.Director,
	days int,
	now time.Time,
) (convenioResult, error) {
	var res convenioResult
	if !domconvenio.IsTriggerDay(days, uc.thresholds) {
		return res, nil
	}

	from, to := domconvenio.DayWindow(now, uc.loc)
	existing, err := uc.notifRepo.FindByTypeAndConvenio(ctx, entity.NotificationConvenioPorVencer, c.ID, from, to)
	if err != nil {
		return res, fmt.Errorf("verificar aviso del día: %w", err)
	}
	if existing != nil {
		uc.log.Debug().Str("convenio_id", c.ID).Int("days_remaining", days).Msg("aviso ya emitido hoy")
		return res, nil
	}

	company, err := uc.loadCompany(ctx, c.CompanyID)
	if err != nil {
		return res, err
	}
	emitted, err := uc.broadcast(ctx, directors, company, notification.EmitInput{
		Type:     entity.NotificationConvenioPorVencer,
		Title:    domconvenio.UpcomingTitle(days),
		Message:  domconvenio.UpcomingMessage(c.Name, company.Name, days),
		Priority: domconvenio.PriorityFor(days, uc.thresholds),
		Payload:  buildPayload(c, company, days),
	})
	res.emitted = emitted
	return res, err
}

// broadcast emite una copia a cada director y otra a la empresa. Un destinatario
// fallido no impide intentar los demás.
func (uc *SweepUseCase) broadcast(
	ctx context.Context,
	directors []*entity.Director,
	company *entity.Company,
	base notification.EmitInput,
) (int, error) {
	emitted := 0
	var errs []error

	for _, d := range directors {
		in := base
		in.RecipientID = d.ID
		in.RecipientRole = entity.RoleDirector
		if _, err := uc.emitter.Emit(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("notificar director %s: %w", d.ID, err))
			continue
		}
		emitted++
	}

	in := base
	in.RecipientID = company.ID
	in.RecipientRole = entity.RoleEmpresa
	if _, err := uc.emitter.Emit(ctx, in); err != nil {
		errs = append(errs, fmt.Errorf("notificar empresa %s: %w", company.ID, err))
	} else {
		emitted++
	}

	return emitted, errors.Join(errs...)
}

func buildPayload(c *entity.Convenio, company *entity.Company, days int) entity.ConvenioPayload {
	return entity.ConvenioPayload{
		ConvenioID:    c.ID,
		ConvenioName:  c.Name,
		CompanyName:   company.Name,
		CompanyID:     company.ID,
		EndDate:       *c.EndDate,
		DaysRemaining: days,
	}
}
