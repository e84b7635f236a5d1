// Package appointmenttest provides an in-memory appointment.Repository for tests.
package appointmenttest

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/models"
)

type state struct {
	accounts     map[uint]models.Account
	users        map[uint]models.User
	clients      map[uint]models.Client
	configs      map[uint]models.ScheduleConfig
	holidays     []models.Holiday
	overrides    []models.DayOverride
	appointments []models.Appointment
	products     map[uint]models.Product
	logs         []models.AppointmentProductLog
	nextID       uint
}

func (s *state) clone() *state {
	out := &state{
		accounts:     make(map[uint]models.Account, len(s.accounts)),
		users:        make(map[uint]models.User, len(s.users)),
		clients:      make(map[uint]models.Client, len(s.clients)),
		configs:      make(map[uint]models.ScheduleConfig, len(s.configs)),
		holidays:     append([]models.Holiday(nil), s.holidays...),
		overrides:    append([]models.DayOverride(nil), s.overrides...),
		appointments: append([]models.Appointment(nil), s.appointments...),
		products:     make(map[uint]models.Product, len(s.products)),
		logs:         append([]models.AppointmentProductLog(nil), s.logs...),
		nextID:       s.nextID,
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.configs {
		out.configs[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	return out
}

// Repository is safe for concurrent use. Transactions are serialised and
// rolled back when fn returns an error.
type Repository struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

func New() *Repository {
	return &Repository{
		st: &state{
			accounts: map[uint]models.Account{},
			users:    map[uint]models.User{},
			clients:  map[uint]models.Client{},
			configs:  map[uint]models.ScheduleConfig{},
			products: map[uint]models.Product{},
			nextID:   1,
		},
		now: time.Now,
	}
}

func (r *Repository) id() uint {
	id := r.st.nextID
	r.st.nextID++
	return id
}

// ----- seeding -----

func (r *Repository) AddAccount(a models.Account) models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.id()
	}
	r.st.accounts[a.ID] = a
	return a
}

func (r *Repository) AddUser(u models.User) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.id()
	}
	r.st.users[u.ID] = u
	return u
}

func (r *Repository) AddClient(c models.Client) models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		c.ID = r.id()
	}
	r.st.clients[c.ID] = c
	return c
}

func (r *Repository) AddProduct(p models.Product) models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.id()
	}
	r.st.products[p.ID] = p
	return p
}

// Appointments returns a snapshot of every stored appointment.
func (r *Repository) Appointments() []models.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Appointment(nil), r.st.appointments...)
}

func (r *Repository) Product(id uint) models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.products[id]
}

// ----- domain.Repository -----

func (r *Repository) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.st.clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.st = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.st.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *Repository) GetProfessional(ctx context.Context, accountID, userID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.st.users[userID]
	if !ok || u.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *Repository) FindClient(ctx context.Context, accountID, clientID uint) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.clients[clientID]
	if !ok || c.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *Repository) GetScheduleConfig(ctx context.Context, professionalID uint) (*models.ScheduleConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.configs[professionalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *Repository) LockScheduleConfig(ctx context.Context, professionalID uint) (*models.ScheduleConfig, error) {
	return r.GetScheduleConfig(ctx, professionalID)
}

func (r *Repository) SaveScheduleConfig(ctx context.Context, cfg *models.ScheduleConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.st.configs[cfg.ProfessionalID]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.ID = r.id()
		cfg.CreatedAt = r.now()
	}
	cfg.UpdatedAt = r.now()
	r.st.configs[cfg.ProfessionalID] = *cfg
	return nil
}

func (r *Repository) HolidayExists(ctx context.Context, professionalID uint, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.st.holidays {
		if h.ProfessionalID == professionalID && h.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.st.holidays {
		if existing.ProfessionalID == h.ProfessionalID && existing.Date == h.Date {
			return httperr.ErrBusiness(domain.ErrHolidayExists)
		}
	}
	h.ID = r.id()
	h.CreatedAt = r.now()
	r.st.holidays = append(r.st.holidays, *h)
	return nil
}

func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func (r *Repository) ListHolidays(ctx context.Context, professionalID uint, from, to string) ([]models.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Holiday{}
	for _, h := range r.st.holidays {
		if h.ProfessionalID == professionalID && inRange(h.Date, from, to) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *Repository) DeleteHoliday(ctx context.Context, professionalID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.st.holidays {
		if h.ID == id && h.ProfessionalID == professionalID {
			r.st.holidays = append(r.st.holidays[:i], r.st.holidays[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *Repository) FindDayOverride(ctx context.Context, professionalID uint, date string) (*models.DayOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.st.overrides {
		if o.ProfessionalID == professionalID && o.Date == date {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Repository) SaveDayOverride(ctx context.Context, o *models.DayOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.UpdatedAt = r.now()
	for i, existing := range r.st.overrides {
		if existing.ProfessionalID == o.ProfessionalID && existing.Date == o.Date {
			o.ID = existing.ID
			o.CreatedAt = existing.CreatedAt
			r.st.overrides[i] = *o
			return nil
		}
	}
	o.ID = r.id()
	o.CreatedAt = o.UpdatedAt
	r.st.overrides = append(r.st.overrides, *o)
	return nil
}

func (r *Repository) ListDayOverrides(ctx context.Context, professionalID uint, from, to string) ([]models.DayOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.DayOverride{}
	for _, o := range r.st.overrides {
		if o.ProfessionalID == professionalID && inRange(o.Date, from, to) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *Repository) DeleteDayOverride(ctx context.Context, professionalID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.st.overrides {
		if o.ID == id && o.ProfessionalID == professionalID {
			r.st.overrides = append(r.st.overrides[:i], r.st.overrides[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func blocking(status string) bool {
	for _, s := range domain.BlockingStatuses {
		if string(s) == status {
			return true
		}
	}
	return false
}

func (r *Repository) HasConflict(ctx context.Context, professionalID uint, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.st.appointments {
		if ap.ProfessionalID != professionalID || !blocking(ap.Status) {
			continue
		}
		if ap.StartTime.Before(end) && ap.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap.ID = r.id()
	ap.CreatedAt = r.now()
	ap.UpdatedAt = ap.CreatedAt
	r.st.appointments = append(r.st.appointments, *ap)
	return nil
}

func (r *Repository) GetAppointmentForProfessional(ctx context.Context, appointmentID, professionalID uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.st.appointments {
		if ap.ID == appointmentID && ap.ProfessionalID == professionalID {
			return &ap, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Repository) UpdateAppointmentStatus(ctx context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.st.appointments {
		if r.st.appointments[i].ID == ap.ID {
			r.st.appointments[i].Status = ap.Status
			r.st.appointments[i].UpdatedAt = r.now()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *Repository) ListAppointments(ctx context.Context, f domain.ListFilter) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Appointment{}
	for _, ap := range r.st.appointments {
		if ap.ProfessionalID != f.ProfessionalID {
			continue
		}
		if f.From != nil && ap.StartTime.Before(*f.From) {
			continue
		}
		if f.To != nil && !ap.StartTime.Before(*f.To) {
			continue
		}
		if f.Status != nil && ap.Status != string(*f.Status) {
			continue
		}
		out = append(out, ap)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *Repository) ListBlockingAppointments(ctx context.Context, professionalID uint, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Appointment{}
	for _, ap := range r.st.appointments {
		if ap.ProfessionalID == professionalID && blocking(ap.Status) &&
			ap.StartTime.Before(end) && ap.EndTime.After(start) {
			out = append(out, ap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *Repository) GetProduct(ctx context.Context, accountID, productID uint) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.products[productID]
	if !ok || p.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *Repository) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.st.products[productID] = p
	return true, nil
}

func (r *Repository) CreateProductLog(ctx context.Context, l *models.AppointmentProductLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = r.id()
	l.CreatedAt = r.now()
	r.st.logs = append(r.st.logs, *l)
	return nil
}

func (r *Repository) ListProductLogs(ctx context.Context, appointmentID uint) ([]models.AppointmentProductLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.AppointmentProductLog{}
	for _, l := range r.st.logs {
		if l.AppointmentID == appointmentID {
			l.Product = r.st.products[l.ProductID]
			out = append(out, l)
		}
	}
	return out, nil
}

var _ domain.Repository = (*Repository)(nil)
