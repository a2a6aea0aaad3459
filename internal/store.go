package internal

import (
	"context"

	"fieldbook/internal/domain"
	"fieldbook/internal/storage"
)

// Store is the persistence the handlers need. *storage.Postgres implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, acc storage.Account) error
	UserByUsername(ctx context.Context, username string) (domain.User, string, error)
	UserByID(ctx context.Context, id string) (domain.User, error)

	PlayerByID(ctx context.Context, id string) (domain.Player, error)
	PlayerByUser(ctx context.Context, userID string) (domain.Player, error)
	UpdatePlayer(ctx context.Context, p domain.Player) error

	FieldByID(ctx context.Context, id string) (domain.Field, error)
	FieldByUser(ctx context.Context, userID string) (domain.Field, error)
	UpdateField(ctx context.Context, id string, fn func(*domain.Field) error) (domain.Field, error)
	ListFields(ctx context.Context, tag string) ([]domain.Field, error)

	CreateReservation(ctx context.Context, fieldID, date string, build func(*domain.Field, []domain.Reservation) (*domain.Reservation, error)) (domain.Reservation, error)
	Reservation(ctx context.Context, id string) (domain.Reservation, error)
	ListReservations(ctx context.Context, f storage.ReservationFilter) ([]domain.Reservation, error)
	MutateReservation(ctx context.Context, id string, fn func(*domain.Reservation) (bool, error)) (domain.Reservation, bool, error)
	FinishReservation(ctx context.Context, id string, exp int, fn func(*domain.Reservation) error) (domain.Reservation, error)

	FriendBetween(ctx context.Context, a, b string) (*domain.Friend, error)
	CreateFriend(ctx context.Context, f domain.Friend) error
	MutateFriend(ctx context.Context, a, b string, fn func(*domain.Friend) (bool, error)) (domain.Friend, error)
	Friends(ctx context.Context, playerID string) ([]domain.Friend, error)
	FriendRequests(ctx context.Context, playerID string) ([]domain.Friend, error)

	CreateInvite(ctx context.Context, reservationID string, build func(*domain.Reservation) (*domain.Invite, error)) (domain.Invite, error)
	Invite(ctx context.Context, id string) (domain.Invite, error)
	InvitesFor(ctx context.Context, playerID string) ([]domain.Invite, error)
	AcceptInvite(ctx context.Context, id string, fn func(*domain.Invite, *domain.Reservation) error) (domain.Reservation, error)
	DeleteInvite(ctx context.Context, id string) error

	LogAction(ctx context.Context, actorID, action, details string) error
}

var _ Store = (*storage.Postgres)(nil)
