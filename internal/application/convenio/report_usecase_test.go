package convenio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconvenio "github.com/jhoicas/Convenios-api/internal/application/convenio"
	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/domain"
	domconvenio "github.com/jhoicas/Convenios-api/internal/domain/convenio"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/memory"
)

type fakeGenerator struct {
	got *dto.ExpirationReport
	err error
}

func (g *fakeGenerator) GenerateExpirationReport(_ context.Context, r *dto.ExpirationReport) ([]byte, error) {
	g.got = r
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-1.4"), nil
}

func newReportFixture(t *testing.T) (*memory.Store, *fakeGenerator, *appconvenio.ReportUseCase, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	gen := &fakeGenerator{}
	uc := appconvenio.NewReportUseCase(store.Convenios(), store.Companies(), gen,
		domconvenio.DefaultThresholds(), appconvenio.WithReportClock(func() time.Time { return now }))
	return store, gen, uc, now
}

func addApproved(store *memory.Store, id, companyID string, end time.Time) {
	store.AddConvenio(entity.Convenio{ID: id, CompanyID: companyID, Name: "Convenio " + id, Status: entity.ConvenioStatusAprobado, EndDate: &end})
}

func TestReport_OrdenaPorDiasYAsignaPrioridad(t *testing.T) {
	store, _, uc, now := newReportFixture(t)
	store.AddCompany(entity.Company{ID: "e-1", Name: "Acme S.A.S.", Enabled: true})
	addApproved(store, "c-lejos", "e-1", now.AddDate(0, 0, 25))
	addApproved(store, "c-cerca", "e-1", now.AddDate(0, 0, 2))
	addApproved(store, "c-medio", "e-1", now.AddDate(0, 0, 12))
	addApproved(store, "c-fuera", "e-1", now.AddDate(0, 0, 45))
	addApproved(store, "c-pasado", "e-1", now.AddDate(0, 0, -1))

	report, err := uc.BuildReport(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, report.WindowDays, "0 usa el umbral medio")
	require.Len(t, report.Items, 3)
	assert.Equal(t, "c-cerca", report.Items[0].ConvenioID)
	assert.Equal(t, entity.PriorityUrgente, report.Items[0].Priority)
	assert.Equal(t, "c-medio", report.Items[1].ConvenioID)
	assert.Equal(t, entity.PriorityAlta, report.Items[1].Priority)
	assert.Equal(t, "c-lejos", report.Items[2].ConvenioID)
	assert.Equal(t, entity.PriorityMedia, report.Items[2].Priority)
	assert.Equal(t, "Acme S.A.S.", report.Items[0].CompanyName)
}

func TestReport_EmpresaInexistenteUsaSuID(t *testing.T) {
	store, _, uc, now := newReportFixture(t)
	addApproved(store, "c-1", "e-huerfana", now.AddDate(0, 0, 5))

	report, err := uc.BuildReport(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "e-huerfana", report.Items[0].CompanyName)
}

func TestReport_VentanaInvalida(t *testing.T) {
	_, _, uc, _ := newReportFixture(t)
	for _, days := range []int{-1, appconvenio.MaxReportWindowDays + 1} {
		_, err := uc.BuildReport(context.Background(), days)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "días=%d", days)
	}
}

func TestReport_PDFConNombreDeArchivo(t *testing.T) {
	store, gen, uc, now := newReportFixture(t)
	store.AddCompany(entity.Company{ID: "e-1", Name: "Acme"})
	addApproved(store, "c-1", "e-1", now.AddDate(0, 0, 3))

	pdf, filename, err := uc.ExpiringReportPDF(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "convenios_por_vencer_20260310.pdf", filename)
	require.NotNil(t, gen.got)
	assert.Len(t, gen.got.Items, 1)
}

func TestReport_ErrorDeRepositorioSePropaga(t *testing.T) {
	store, _, uc, _ := newReportFixture(t)
	store.FailOn("convenio.ListEndingBetween", errors.New("db caída"))

	_, err := uc.BuildReport(context.Background(), 7)
	assert.ErrorContains(t, err, "db caída")
}

func TestReport_ErrorDelGeneradorSePropaga(t *testing.T) {
	store, gen, uc, now := newReportFixture(t)
	addApproved(store, "c-1", "e-1", now.AddDate(0, 0, 3))
	gen.err = errors.New("fuente no encontrada")

	_, _, err := uc.ExpiringReportPDF(context.Background(), 7)
	assert.ErrorContains(t, err, "fuente no encontrada")
}
