// Package memory implementa los puertos de repositorio en memoria.
// Lo usan los tests de aplicación y de HTTP; no está pensado para producción.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/internal/domain/entity"
	"github.com/jhoicas/Convenios-api/internal/domain/repository"
)

var (
	_ repository.ConvenioRepository     = (*ConvenioRepo)(nil)
	_ repository.CompanyRepository      = (*CompanyRepo)(nil)
	_ repository.DirectorRepository     = (*DirectorRepo)(nil)
	_ repository.RecipientRepository    = (*RecipientRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)

// Store guarda todas las entidades y permite inyectar fallos por operación.
type Store struct {
	mu            sync.Mutex
	convenios     map[string]*entity.Convenio
	companies     map[string]*entity.Company
	directors     []*entity.Director
	others        map[string]*entity.Recipient // estudiantes y administradores
	notifications []*entity.Notification
	failures      map[string]error
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		convenios: make(map[string]*entity.Convenio),
		companies: make(map[string]*entity.Company),
		others:    make(map[string]*entity.Recipient),
		failures:  make(map[string]error),
	}
}

// FailOn hace que la operación op falle con err. op es "<repo>.<Método>" o
// "<repo>.<Método>:<id>" para fallar solo con ese ID (ej. "company.GetByID:e-1").
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) failure(op, id string) error {
	if err, ok := s.failures[op+":"+id]; ok {
		return err
	}
	return s.failures[op]
}

// AddConvenio inserta o reemplaza un convenio.
func (s *Store) AddConvenio(c entity.Convenio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convenios[c.ID] = &c
}

// AddCompany inserta o reemplaza una empresa.
func (s *Store) AddCompany(c entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = &c
}

// AddDirector agrega un director.
func (s *Store) AddDirector(d entity.Director) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directors = append(s.directors, &d)
}

// AddRecipient agrega un destinatario de otro rol (estudiante, admin).
func (s *Store) AddRecipient(r entity.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.others[r.ID] = &r
}

// Convenio devuelve una copia del convenio o nil.
func (s *Store) Convenio(id string) *entity.Convenio {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convenios[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Company devuelve una copia de la empresa o nil.
func (s *Store) Company(id string) *entity.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Notifications devuelve copia de todas las notificaciones en orden de creación.
func (s *Store) Notifications() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	return out
}

// Convenios repositorio de convenios sobre el Store.
func (s *Store) Convenios() *ConvenioRepo { return &ConvenioRepo{s: s} }

// Companies repositorio de empresas sobre el Store.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s: s} }

// Directors repositorio de directores sobre el Store.
func (s *Store) Directors() *DirectorRepo { return &DirectorRepo{s: s} }

// Recipients repositorio de destinatarios sobre el Store.
func (s *Store) Recipients() *RecipientRepo { return &RecipientRepo{s: s} }

// NotificationsRepo repositorio de notificaciones sobre el Store.
func (s *Store) NotificationsRepo() *NotificationRepo { return &NotificationRepo{s: s} }

// ConvenioRepo implementa repository.ConvenioRepository.
type ConvenioRepo struct{ s *Store }

func (r *ConvenioRepo) GetByID(_ context.Context, id string) (*entity.Convenio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("convenio.GetByID", id); err != nil {
		return nil, err
	}
	c, ok := r.s.convenios[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ConvenioRepo) FindByStatusWithEndDate(_ context.Context, status string) ([]*entity.Convenio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("convenio.FindByStatusWithEndDate", ""); err != nil {
		return nil, err
	}
	var out []*entity.Convenio
	for _, c := range r.s.convenios {
		if c.Status == status && c.EndDate != nil {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortConvenios(out)
	return out, nil
}

func (r *ConvenioRepo) UpdateStatus(_ context.Context, id, fromStatus, toStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("convenio.UpdateStatus", id); err != nil {
		return err
	}
	c, ok := r.s.convenios[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != fromStatus {
		return domain.ErrConflict
	}
	c.Status = toStatus
	c.UpdatedAt = time.Now()
	return nil
}

func (r *ConvenioRepo) CountByCompanyAndStatus(_ context.Context, companyID, status string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("convenio.CountByCompanyAndStatus", companyID); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range r.s.convenios {
		if c.CompanyID == companyID && c.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *ConvenioRepo) ListEndingBetween(_ context.Context, status string, from, to time.Time) ([]*entity.Convenio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("convenio.ListEndingBetween", ""); err != nil {
		return nil, err
	}
	var out []*entity.Convenio
	for _, c := range r.s.convenios {
		if c.Status != status || c.EndDate == nil {
			continue
		}
		if !c.EndDate.Before(from) && c.EndDate.Before(to) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortConvenios(out)
	return out, nil
}

// sortConvenios orden estable por fecha de fin y luego ID, como el ORDER BY de PostgreSQL.
func sortConvenios(list []*entity.Convenio) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.EndDate != nil && b.EndDate != nil && !a.EndDate.Equal(*b.EndDate) {
			return a.EndDate.Before(*b.EndDate)
		}
		return a.ID < b.ID
	})
}

// CompanyRepo implementa repository.CompanyRepository.
type CompanyRepo struct{ s *Store }

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("company.GetByID", id); err != nil {
		return nil, err
	}
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CompanyRepo) SetEnabled(_ context.Context, id string, enabled bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("company.SetEnabled", id); err != nil {
		return err
	}
	c, ok := r.s.companies[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Enabled = enabled
	c.UpdatedAt = time.Now()
	return nil
}

// DirectorRepo implementa repository.DirectorRepository.
type DirectorRepo struct{ s *Store }

func (r *DirectorRepo) List(_ context.Context) ([]*entity.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("director.List", ""); err != nil {
		return nil, err
	}
	out := make([]*entity.Director, 0, len(r.s.directors))
	for _, d := range r.s.directors {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

// RecipientRepo implementa repository.RecipientRepository buscando en todos los roles.
type RecipientRepo struct{ s *Store }

func (r *RecipientRepo) FindByID(_ context.Context, id string) (*entity.Recipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("recipient.FindByID", id); err != nil {
		return nil, err
	}
	for _, d := range r.s.directors {
		if d.ID == id {
			return &entity.Recipient{ID: d.ID, Role: entity.RoleDirector, Name: d.Name, Email: d.Email}, nil
		}
	}
	if c, ok := r.s.companies[id]; ok {
		return &entity.Recipient{ID: c.ID, Role: entity.RoleEmpresa, Name: c.Name, Email: c.Email}, nil
	}
	if o, ok := r.s.others[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

// NotificationRepo implementa repository.NotificationRepository.
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notification.Create", n.RecipientID); err != nil {
		return err
	}
	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r *NotificationRepo) FindByTypeAndConvenio(_ context.Context, notificationType, convenioID string, from, to time.Time) (*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notification.FindByTypeAndConvenio", convenioID); err != nil {
		return nil, err
	}
	for _, n := range r.s.notifications {
		if n.Type != notificationType || n.CreatedAt.Before(from) || !n.CreatedAt.Before(to) {
			continue
		}
		if cp, ok := n.Payload.(entity.ConvenioPayload); ok && cp.ConvenioID == convenioID {
			out := *n
			return &out, nil
		}
	}
	return nil, nil
}

func (r *NotificationRepo) ListByRecipient(_ context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notification.ListByRecipient", recipientID); err != nil {
		return nil, err
	}
	var matched []*entity.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if n := r.s.notifications[i]; n.RecipientID == recipientID {
			cp := *n
			matched = append(matched, &cp)
		}
	}
	if offset >= len(matched) {
		return []*entity.Notification{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
