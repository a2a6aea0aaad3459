package internal

import (
	"context"
	"slices"
	"sort"
	"sync"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
	"fieldbook/internal/storage"
)

type auditEntry struct {
	actor, action, details string
}

// memStore is an in-memory Store for handler tests. A single mutex stands in
// for the database's row locks.
type memStore struct {
	mu sync.Mutex

	users        map[string]domain.User
	hashes       map[string]string
	players      map[string]domain.Player
	fields       map[string]domain.Field
	reservations map[string]domain.Reservation
	friends      map[string]domain.Friend
	invites      map[string]domain.Invite
	audit        []auditEntry

	// awardErr and acceptErr fail the last write of FinishReservation and
	// AcceptInvite, after fn has run. Nothing is committed then.
	awardErr  error
	acceptErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]domain.User{},
		hashes:       map[string]string{},
		players:      map[string]domain.Player{},
		fields:       map[string]domain.Field{},
		reservations: map[string]domain.Reservation{},
		friends:      map[string]domain.Friend{},
		invites:      map[string]domain.Invite{},
	}
}

var errNotFound = apperr.New(apperr.DataNotFound)

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) CreateAccount(_ context.Context, acc storage.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == acc.User.Username {
			return apperr.New(apperr.UsernameTaken)
		}
	}
	m.users[acc.User.ID] = acc.User
	m.hashes[acc.User.ID] = acc.PassHash
	if acc.Player != nil {
		m.players[acc.Player.ID] = *acc.Player
	}
	if acc.Field != nil {
		m.fields[acc.Field.ID] = *acc.Field
	}
	return nil
}

func (m *memStore) UserByUsername(_ context.Context, username string) (domain.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, m.hashes[u.ID], nil
		}
	}
	return domain.User{}, "", errNotFound
}

func (m *memStore) UserByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, errNotFound
	}
	return u, nil
}

func (m *memStore) PlayerByID(_ context.Context, id string) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return domain.Player{}, errNotFound
	}
	p.History = slices.Clone(p.History)
	return p, nil
}

func (m *memStore) PlayerByUser(_ context.Context, userID string) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Player{}, errNotFound
}

func (m *memStore) UpdatePlayer(_ context.Context, p domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.players[p.ID]
	if !ok {
		return errNotFound
	}
	cur.Name, cur.Photo = p.Name, p.Photo
	m.players[p.ID] = cur
	return nil
}

func cloneField(f domain.Field) domain.Field {
	f.Tags = slices.Clone(f.Tags)
	f.Photos = slices.Clone(f.Photos)
	f.Schedules = slices.Clone(f.Schedules)
	return f
}

func (m *memStore) FieldByID(_ context.Context, id string) (domain.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[id]
	if !ok {
		return domain.Field{}, errNotFound
	}
	return cloneField(f), nil
}

func (m *memStore) FieldByUser(_ context.Context, userID string) (domain.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.UserID == userID {
			return cloneField(f), nil
		}
	}
	return domain.Field{}, errNotFound
}

func (m *memStore) UpdateField(_ context.Context, id string, fn func(*domain.Field) error) (domain.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[id]
	if !ok {
		return domain.Field{}, errNotFound
	}
	f = cloneField(f)
	if err := fn(&f); err != nil {
		return domain.Field{}, err
	}
	m.fields[id] = f
	return cloneField(f), nil
}

func (m *memStore) ListFields(_ context.Context, tag string) ([]domain.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Field{}
	for _, f := range m.fields {
		if tag != "" {
			if _, ok := f.FindTag(tag); !ok {
				continue
			}
		}
		out = append(out, cloneField(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneReservation(r domain.Reservation) domain.Reservation {
	r.Players = slices.Clone(r.Players)
	return r
}

func (m *memStore) CreateReservation(_ context.Context, fieldID, date string, build func(*domain.Field, []domain.Reservation) (*domain.Reservation, error)) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[fieldID]
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	var taken []domain.Reservation
	for _, r := range m.reservations {
		if r.FieldID == fieldID && r.Date == date {
			taken = append(taken, cloneReservation(r))
		}
	}
	f = cloneField(f)
	r, err := build(&f, taken)
	if err != nil {
		return domain.Reservation{}, err
	}
	m.reservations[r.ID] = cloneReservation(*r)
	return *r, nil
}

func (m *memStore) Reservation(_ context.Context, id string) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	return cloneReservation(r), nil
}

func (m *memStore) ListReservations(_ context.Context, f storage.ReservationFilter) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Reservation{}
	for _, r := range m.reservations {
		if (f.FieldID != "" && r.FieldID != f.FieldID) ||
			(f.PlayerID != "" && !r.Has(f.PlayerID)) ||
			(f.Date != "" && r.Date != f.Date) ||
			(f.Status != "" && r.Status != f.Status) ||
			(f.Open && r.Full()) {
			continue
		}
		out = append(out, cloneReservation(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Schedule.Start < out[j].Schedule.Start
	})
	return out, nil
}

func (m *memStore) MutateReservation(_ context.Context, id string, fn func(*domain.Reservation) (bool, error)) (domain.Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, false, errNotFound
	}
	r = cloneReservation(r)
	remove, err := fn(&r)
	if err != nil {
		return domain.Reservation{}, false, err
	}
	if remove {
		delete(m.reservations, id)
		for iid, inv := range m.invites {
			if inv.ReservationID == id {
				delete(m.invites, iid)
			}
		}
		return r, true, nil
	}
	m.reservations[id] = cloneReservation(r)
	return r, false, nil
}

func (m *memStore) FinishReservation(_ context.Context, id string, exp int, fn func(*domain.Reservation) error) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	r = cloneReservation(r)
	if err := fn(&r); err != nil {
		return domain.Reservation{}, err
	}
	if m.awardErr != nil {
		return domain.Reservation{}, m.awardErr
	}
	m.reservations[id] = cloneReservation(r)
	for _, pid := range r.Players {
		if p, ok := m.players[pid]; ok {
			p.History = slices.Clone(p.History)
			p.Award(exp, r.ID)
			m.players[pid] = p
		}
	}
	return r, nil
}

func (m *memStore) findFriend(a, b string) (domain.Friend, bool) {
	for _, f := range m.friends {
		if f.Involves(a) && f.Involves(b) && a != b {
			return f, true
		}
	}
	return domain.Friend{}, false
}

func (m *memStore) FriendBetween(_ context.Context, a, b string) (*domain.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.findFriend(a, b); ok {
		return &f, nil
	}
	return nil, nil
}

func (m *memStore) CreateFriend(_ context.Context, f domain.Friend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findFriend(f.Requester, f.Addressee); ok {
		return apperr.New(apperr.FriendExists)
	}
	m.friends[f.ID] = f
	return nil
}

func (m *memStore) MutateFriend(_ context.Context, a, b string, fn func(*domain.Friend) (bool, error)) (domain.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.findFriend(a, b)
	if !ok {
		return domain.Friend{}, errNotFound
	}
	remove, err := fn(&f)
	if err != nil {
		return domain.Friend{}, err
	}
	if remove {
		delete(m.friends, f.ID)
	} else {
		m.friends[f.ID] = f
	}
	return f, nil
}

func (m *memStore) listFriends(keep func(domain.Friend) bool) []domain.Friend {
	out := []domain.Friend{}
	for _, f := range m.friends {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) Friends(_ context.Context, playerID string) ([]domain.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listFriends(func(f domain.Friend) bool { return !f.Pending && f.Involves(playerID) }), nil
}

func (m *memStore) FriendRequests(_ context.Context, playerID string) ([]domain.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listFriends(func(f domain.Friend) bool { return f.Pending && f.Addressee == playerID }), nil
}

func (m *memStore) CreateInvite(_ context.Context, reservationID string, build func(*domain.Reservation) (*domain.Invite, error)) (domain.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	if !ok {
		return domain.Invite{}, errNotFound
	}
	r = cloneReservation(r)
	inv, err := build(&r)
	if err != nil {
		return domain.Invite{}, err
	}
	for _, other := range m.invites {
		if other.ReservationID == inv.ReservationID && other.To == inv.To {
			return domain.Invite{}, apperr.New(apperr.InviteExists)
		}
	}
	m.invites[inv.ID] = *inv
	return *inv, nil
}

func (m *memStore) Invite(_ context.Context, id string) (domain.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return domain.Invite{}, errNotFound
	}
	return inv, nil
}

func (m *memStore) InvitesFor(_ context.Context, playerID string) ([]domain.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Invite{}
	for _, inv := range m.invites {
		if inv.To == playerID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AcceptInvite(_ context.Context, id string, fn func(*domain.Invite, *domain.Reservation) error) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	r, ok := m.reservations[inv.ReservationID]
	if !ok {
		return domain.Reservation{}, errNotFound
	}
	r = cloneReservation(r)
	if err := fn(&inv, &r); err != nil {
		return domain.Reservation{}, err
	}
	if m.acceptErr != nil {
		return domain.Reservation{}, m.acceptErr
	}
	m.reservations[r.ID] = cloneReservation(r)
	delete(m.invites, id)
	return r, nil
}

func (m *memStore) DeleteInvite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[id]; !ok {
		return errNotFound
	}
	delete(m.invites, id)
	return nil
}

func (m *memStore) LogAction(_ context.Context, actor, action, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, auditEntry{actor, action, details})
	return nil
}

func (m *memStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.audit))
	for _, e := range m.audit {
		out = append(out, e.action)
	}
	return out
}

func (m *memStore) hasAction(action string) bool {
	return slices.Contains(m.actions(), action)
}

var _ Store = (*memStore)(nil)
