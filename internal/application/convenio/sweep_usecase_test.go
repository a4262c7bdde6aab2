package convenio_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconvenio "github.com/jhoicas/Convenios-api/internal/application/convenio"
	"github.com/jhoicas/Convenios-api/internal/application/notification"
	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/internal/domain"
	domconvenio "github.com/jhoicas/Convenios-api/internal/domain/convenio"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/infrastructure/memory"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var bogota = mustLocation("America/Bogota")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type publishCall struct {
	room  string
	event string
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, room, event string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publishCall{room: room, event: event})
	return p.err
}

type emailCall struct {
	to       string
	template string
	data     map[string]any
}

type recordingEmail struct {
	mu    sync.Mutex
	calls []emailCall
	err   error
}

func (e *recordingEmail) SendTemplated(_ context.Context, to, templateID string, data map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, emailCall{to: to, template: templateID, data: data})
	return e.err
}

type sweepFixture struct {
	store     *memory.Store
	clock     *fakeClock
	publisher *recordingPublisher
	email     *recordingEmail
	sweep     *appconvenio.SweepUseCase
}

// newFixture arma el barrido con dos directores y el reloj el 10/03/2026 10:00 en Bogotá.
func newFixture(t *testing.T, thresholds domconvenio.Thresholds) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		store:     memory.NewStore(),
		clock:     &fakeClock{t: time.Date(2026, 3, 10, 10, 0, 0, 0, bogota)},
		publisher: &recordingPublisher{},
		email:     &recordingEmail{},
	}
	f.store.AddDirector(entity.Director{ID: "d-1", Name: "Directora Sistemas", Email: "sistemas@uni.edu.co"})
	f.store.AddDirector(entity.Director{ID: "d-2", Name: "Director Industrial", Email: "industrial@uni.edu.co"})

	notifier := notification.NewService(
		f.store.NotificationsRepo(), f.store.Recipients(), f.publisher, f.email,
		map[string]string{
			entity.NotificationConvenioPorVencer: "tpl-por-vencer",
			entity.NotificationConvenioVencido:   "tpl-vencido",
		},
		logger.Nop(),
		notification.WithClock(f.clock.Now),
	)
	f.sweep = appconvenio.NewSweepUseCase(
		f.store.Convenios(), f.store.Companies(), f.store.Directors(), f.store.NotificationsRepo(),
		notifier, thresholds, logger.Nop(),
		appconvenio.WithSweepClock(f.clock.Now),
		appconvenio.WithLocation(bogota),
	)
	return f
}

// seed crea una empresa habilitada con un convenio aprobado que termina en end.
func (f *sweepFixture) seed(companyID, convenioID string, end time.Time) {
	f.store.AddCompany(entity.Company{ID: companyID, Name: "Empresa " + companyID, Email: companyID + "@empresa.co", Enabled: true})
	f.addConvenio(companyID, convenioID, entity.ConvenioStatusAprobado, end)
}

func (f *sweepFixture) addConvenio(companyID, convenioID, status string, end time.Time) {
	e := end
	f.store.AddConvenio(entity.Convenio{
		ID: convenioID, CompanyID: companyID, Name: "Convenio " + convenioID,
		Status: status, EndDate: &e,
	})
}

func (f *sweepFixture) daysFromNow(days int) time.Time {
	return f.clock.Now().Add(time.Duration(days) * 24 * time.Hour)
}

func notificationsFor(all []entity.Notification, convenioID, notificationType string) []entity.Notification {
	var out []entity.Notification
	for _, n := range all {
		cp, ok := n.Payload.(entity.ConvenioPayload)
		if ok && cp.ConvenioID == convenioID && n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}

func recipients(list []entity.Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.RecipientRole+":"+n.RecipientID)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Avisos de próximo vencimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestSweep_DiasDeDisparoEmitenUnAvisoPorDestinatario(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	want := map[int]string{
		30: entity.PriorityMedia,
		15: entity.PriorityAlta,
		7:  entity.PriorityUrgente,
		3:  entity.PriorityUrgente,
		1:  entity.PriorityUrgente,
	}
	for days := range want {
		id := fmt.Sprintf("c-%d", days)
		f.seed("e-"+id, id, f.daysFromNow(days))
	}

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.AgreementsScanned)
	assert.Equal(t, 15, summary.NotificationsEmitted, "2 directores + 1 empresa por convenio")
	assert.Equal(t, 0, summary.AgreementsExpired)
	assert.Equal(t, 0, summary.AgreementsFailed)
	assert.Empty(t, summary.Failures)

	all := f.store.Notifications()
	for days, priority := range want {
		id := fmt.Sprintf("c-%d", days)
		got := notificationsFor(all, id, entity.NotificationConvenioPorVencer)
		require.Len(t, got, 3, "convenio a %d días", days)
		assert.ElementsMatch(t, []string{"director:d-1", "director:d-2", "empresa:e-" + id}, recipients(got))
		for _, n := range got {
			assert.Equal(t, priority, n.Priority, "convenio a %d días", days)
			assert.False(t, n.Read)
			cp := n.Payload.(entity.ConvenioPayload)
			assert.Equal(t, days, cp.DaysRemaining)
			assert.Equal(t, "e-"+id, cp.CompanyID)
			assert.Equal(t, "Empresa e-"+id, cp.CompanyName)
			assert.Equal(t, "Convenio "+id, cp.ConvenioName)
		}
		assert.Empty(t, notificationsFor(all, id, entity.NotificationConvenioVencido))
	}
}

func TestSweep_SegundaEjecucionDelMismoDiaNoDuplica(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(7))

	first, err := f.sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.NotificationsEmitted)

	f.clock.Advance(6 * time.Hour) // 16:00, mismo día local
	second, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.NotificationsEmitted)
	assert.Len(t, f.store.Notifications(), 3)
}

func TestSweep_AvisoDeAyerNoBloqueaElDeHoy(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(15))

	// Aviso registrado ayer a las 23:30 hora local.
	yesterday := time.Date(2026, 3, 9, 23, 30, 0, 0, bogota)
	require.NoError(t, f.store.NotificationsRepo().Create(context.Background(), &entity.Notification{
		ID: "n-ayer", Type: entity.NotificationConvenioPorVencer, Title: "x", Message: "x",
		Priority: entity.PriorityAlta, RecipientID: "d-1", RecipientRole: entity.RoleDirector,
		Payload: entity.ConvenioPayload{ConvenioID: "c-1"}, CreatedAt: yesterday,
	}))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.NotificationsEmitted)
}

func TestSweep_DiasFueraDelConjuntoNoAvisan(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	for i, days := range []int{2, 8, 20, 29, 31, 90} {
		id := fmt.Sprintf("c-%d", i)
		f.seed("e-"+id, id, f.daysFromNow(days))
	}

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.AgreementsScanned)
	assert.Equal(t, 0, summary.NotificationsEmitted)
	assert.Empty(t, f.store.Notifications())
}

// Un convenio que termina hoy (días = 0) no está vencido y tampoco es día de disparo.
func TestSweep_CeroDiasNoVenceNiAvisa(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-hoy", f.clock.Now().Add(-4*time.Hour))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AgreementsExpired)
	assert.Equal(t, 0, summary.NotificationsEmitted)
	assert.Equal(t, entity.ConvenioStatusAprobado, f.store.Convenio("c-hoy").Status)
	assert.True(t, f.store.Company("e-1").Enabled)
	assert.Empty(t, f.store.Notifications())
}

// Escenario: convenio único de la empresa X que vence mañana.
func TestSweep_VenceMananaAvisaSinVencer(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-x", "c-x", f.daysFromNow(1))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	all := f.store.Notifications()
	assert.Empty(t, notificationsFor(all, "c-x", entity.NotificationConvenioVencido))

	upcoming := notificationsFor(all, "c-x", entity.NotificationConvenioPorVencer)
	require.Len(t, upcoming, 3)
	for _, n := range upcoming {
		assert.Equal(t, entity.PriorityUrgente, n.Priority)
		assert.Equal(t, "Convenio vence mañana", n.Title)
		assert.Contains(t, n.Message, "vence mañana")
	}
	assert.Equal(t, 0, summary.AgreementsExpired)
	assert.Equal(t, entity.ConvenioStatusAprobado, f.store.Convenio("c-x").Status)
	assert.True(t, f.store.Company("e-x").Enabled)
}

func TestSweep_PrioridadMonotonicaConUmbralesPersonalizados(t *testing.T) {
	f := newFixture(t, domconvenio.Thresholds{Urgent: 5, High: 10, Medium: 20})
	f.seed("e-a", "c-a", f.daysFromNow(5))
	f.seed("e-b", "c-b", f.daysFromNow(20))

	_, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	all := f.store.Notifications()
	a := notificationsFor(all, "c-a", entity.NotificationConvenioPorVencer)
	b := notificationsFor(all, "c-b", entity.NotificationConvenioPorVencer)
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.Equal(t, entity.PriorityUrgente, a[0].Priority)
	assert.Equal(t, entity.PriorityMedia, b[0].Priority)
	assert.GreaterOrEqual(t, entity.PriorityRank(a[0].Priority), entity.PriorityRank(b[0].Priority))
}

func TestSweep_UmbralesInvalidosUsanDefaults(t *testing.T) {
	f := newFixture(t, domconvenio.Thresholds{Urgent: 40, High: 10, Medium: 5})
	assert.Equal(t, domconvenio.DefaultThresholds(), f.sweep.Thresholds())
}

// ──────────────────────────────────────────────────────────────────────────────
// Vencimiento
// ──────────────────────────────────────────────────────────────────────────────

// Escenario: convenio vencido ayer, única relación de la empresa Y.
func TestSweep_ConvenioVencidoDeshabilitaEmpresaSinOtrosConvenios(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-y", "c-y", f.daysFromNow(-1).Add(-time.Hour))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AgreementsExpired)
	assert.Equal(t, 1, summary.CompaniesDisabled)
	assert.Equal(t, 3, summary.NotificationsEmitted)
	assert.Equal(t, entity.ConvenioStatusVencido, f.store.Convenio("c-y").Status)
	assert.False(t, f.store.Company("e-y").Enabled)

	all := f.store.Notifications()
	expired := notificationsFor(all, "c-y", entity.NotificationConvenioVencido)
	require.Len(t, expired, 3)
	assert.ElementsMatch(t, []string{"director:d-1", "director:d-2", "empresa:e-y"}, recipients(expired))
	for _, n := range expired {
		assert.Equal(t, entity.PriorityAlta, n.Priority)
		assert.Equal(t, 0, n.Payload.(entity.ConvenioPayload).DaysRemaining)
	}
	assert.Empty(t, notificationsFor(all, "c-y", entity.NotificationConvenioPorVencer),
		"un convenio vencido no evalúa umbrales de aviso")
}

func TestSweep_ConvenioVencidoConservaEmpresaConOtroAprobado(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-viejo", f.daysFromNow(-10))
	f.addConvenio("e-1", "c-nuevo", entity.ConvenioStatusAprobado, f.daysFromNow(200))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AgreementsScanned)
	assert.Equal(t, 1, summary.AgreementsExpired)
	assert.Equal(t, 0, summary.CompaniesDisabled)
	assert.Equal(t, entity.ConvenioStatusVencido, f.store.Convenio("c-viejo").Status)
	assert.Equal(t, entity.ConvenioStatusAprobado, f.store.Convenio("c-nuevo").Status)
	assert.True(t, f.store.Company("e-1").Enabled)
}

func TestSweep_ConveniosNoAprobadosOSinFechaSeIgnoran(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.store.AddCompany(entity.Company{ID: "e-1", Name: "Acme", Enabled: true})
	f.addConvenio("e-1", "c-revision", entity.ConvenioStatusEnRevision, f.daysFromNow(-5))
	f.addConvenio("e-1", "c-vencido", entity.ConvenioStatusVencido, f.daysFromNow(-5))
	f.store.AddConvenio(entity.Convenio{ID: "c-sin-fecha", CompanyID: "e-1", Status: entity.ConvenioStatusAprobado})

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AgreementsScanned)
	assert.Equal(t, entity.ConvenioStatusEnRevision, f.store.Convenio("c-revision").Status)
	assert.Empty(t, f.store.Notifications())
}

// Si otro proceso ya venció el convenio, este barrido no repite los efectos.
func TestSweep_ConflictoDeEstadoOmiteEfectos(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(-2))
	f.store.FailOn("convenio.UpdateStatus:c-1", domain.ErrConflict)

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AgreementsExpired)
	assert.Equal(t, 0, summary.AgreementsFailed)
	assert.Empty(t, f.store.Notifications())
	assert.True(t, f.store.Company("e-1").Enabled)
}

func TestSweep_SegundaEjecucionNoReVenceNiReNotifica(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(-3))

	_, err := f.sweep.Run(context.Background())
	require.NoError(t, err)
	second, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.AgreementsScanned)
	assert.Len(t, f.store.Notifications(), 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Manejo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestSweep_ErrorEnUnConvenioNoDetieneElBarrido(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-mala", "c-malo", f.daysFromNow(-1))
	f.seed("e-buena", "c-bueno", f.daysFromNow(7))
	f.store.FailOn("company.GetByID:e-mala", errors.New("fila corrupta"))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AgreementsScanned)
	assert.Equal(t, 1, summary.AgreementsFailed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "c-malo", summary.Failures[0].ConvenioID)
	assert.Contains(t, summary.Failures[0].Error, "fila corrupta")
	assert.Equal(t, 3, summary.NotificationsEmitted)
	assert.Len(t, notificationsFor(f.store.Notifications(), "c-bueno", entity.NotificationConvenioPorVencer), 3)
}

func TestSweep_FalloAlPersistirUnDestinatarioNoImpideLosDemas(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(3))
	f.store.FailOn("notification.Create:d-1", errors.New("timeout"))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NotificationsEmitted)
	assert.Equal(t, 1, summary.AgreementsFailed)
	assert.ElementsMatch(t, []string{"director:d-2", "empresa:e-1"},
		recipients(notificationsFor(f.store.Notifications(), "c-1", entity.NotificationConvenioPorVencer)))
}

func TestSweep_DataStoreCaidoAbortaElBarrido(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(7))
	f.store.FailOn("convenio.FindByStatusWithEndDate", errors.New("connection refused"))

	summary, err := f.sweep.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSweep_FalloAlListarDirectoresAbortaElBarrido(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.store.FailOn("director.List", errors.New("connection reset"))

	_, err := f.sweep.Run(context.Background())
	assert.Error(t, err)
}

func TestSweep_FalloDeFanOutYCorreoNoAfectaLaPersistencia(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.publisher.err = errors.New("redis caído")
	f.email.err = errors.New("ses throttling")
	f.seed("e-1", "c-1", f.daysFromNow(15))

	summary, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.NotificationsEmitted)
	assert.Equal(t, 0, summary.AgreementsFailed)
	assert.Len(t, f.store.Notifications(), 3)
	assert.Len(t, f.publisher.calls, 3, "se intenta el fan-out para cada destinatario")
}

func TestSweep_CorreoSoloADirectores(t *testing.T) {
	f := newFixture(t, domconvenio.DefaultThresholds())
	f.seed("e-1", "c-1", f.daysFromNow(-1))

	_, err := f.sweep.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.email.calls, 2)
	for _, c := range f.email.calls {
		assert.Equal(t, "tpl-vencido", c.template)
		assert.Equal(t, "c-1", c.data["convenio_id"])
	}
	assert.ElementsMatch(t, []string{"sistemas@uni.edu.co", "industrial@uni.edu.co"},
		[]string{f.email.calls[0].to, f.email.calls[1].to})

	rooms := make([]string, 0, len(f.publisher.calls))
	for _, c := range f.publisher.calls {
		assert.Equal(t, ports.EventNotificationNew, c.event)
		rooms = append(rooms, c.room)
	}
	assert.ElementsMatch(t, []string{"user:d-1", "user:d-2", "user:e-1"}, rooms)
}
