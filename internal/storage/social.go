package storage

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"fieldbook/internal/domain"
)

var (
	friendColumns = []string{"id", "requester", "addressee", "pending", "created_at"}
	inviteColumns = []string{"id", "reservation_id", "from_id", "to_id", "created_at"}
)

func scanFriend(row pgx.Row) (domain.Friend, error) {
	var f domain.Friend
	err := row.Scan(&f.ID, &f.Requester, &f.Addressee, &f.Pending, &f.CreatedAt)
	return f, err
}

func scanInvite(row pgx.Row) (domain.Invite, error) {
	var i domain.Invite
	err := row.Scan(&i.ID, &i.ReservationID, &i.From, &i.To, &i.CreatedAt)
	return i, err
}

func pair(a, b string) sq.Or {
	return sq.Or{
		sq.Eq{"requester": a, "addressee": b},
		sq.Eq{"requester": b, "addressee": a},
	}
}

/* ===================== FRIENDS ===================== */

// FriendBetween returns the relationship between a and b in either
// direction, or nil when there is none.
func (s *Postgres) FriendBetween(ctx context.Context, a, b string) (out *domain.Friend, err error) {
	ctx, span := startSpan(ctx, "FriendBetween")
	defer func() { endSpan(span, err) }()

	f, err := scanFriend(qRow(ctx, s.pool, psql.Select(friendColumns...).From("friends").Where(pair(a, b))))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get friend", err)
	}
	return &f, nil
}

func (s *Postgres) CreateFriend(ctx context.Context, f domain.Friend) (err error) {
	ctx, span := startSpan(ctx, "CreateFriend")
	defer func() { endSpan(span, err) }()

	_, err = qExec(ctx, s.pool, psql.Insert("friends").
		Columns(friendColumns...).
		Values(f.ID, f.Requester, f.Addressee, f.Pending, f.CreatedAt))
	return wrap("create friend", err)
}

// MutateFriend locks the relationship between a and b, applies fn and
// writes it back, or deletes it when fn asks for removal.
func (s *Postgres) MutateFriend(ctx context.Context, a, b string, fn func(*domain.Friend) (remove bool, err error)) (f domain.Friend, err error) {
	ctx, span := startSpan(ctx, "MutateFriend")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		f, err = scanFriend(qRow(ctx, tx, psql.Select(friendColumns...).
			From("friends").
			Where(pair(a, b)).
			Suffix("FOR UPDATE")))
		if err != nil {
			return err
		}
		remove, err := fn(&f)
		if err != nil {
			return err
		}
		if remove {
			_, err = qExec(ctx, tx, psql.Delete("friends").Where(sq.Eq{"id": f.ID}))
			return err
		}
		_, err = qExec(ctx, tx, psql.Update("friends").Set("pending", f.Pending).Where(sq.Eq{"id": f.ID}))
		return err
	})
	return f, wrap("mutate friend", err)
}

// Friends lists accepted relationships of playerID.
func (s *Postgres) Friends(ctx context.Context, playerID string) (out []domain.Friend, err error) {
	ctx, span := startSpan(ctx, "Friends")
	defer func() { endSpan(span, err) }()

	out, err = s.listFriends(ctx, psql.Select(friendColumns...).
		From("friends").
		Where(sq.Eq{"pending": false}).
		Where(sq.Or{sq.Eq{"requester": playerID}, sq.Eq{"addressee": playerID}}).
		OrderBy("created_at DESC"))
	return out, wrap("list friends", err)
}

// FriendRequests lists pending requests addressed to playerID.
func (s *Postgres) FriendRequests(ctx context.Context, playerID string) (out []domain.Friend, err error) {
	ctx, span := startSpan(ctx, "FriendRequests")
	defer func() { endSpan(span, err) }()

	out, err = s.listFriends(ctx, psql.Select(friendColumns...).
		From("friends").
		Where(sq.Eq{"pending": true, "addressee": playerID}).
		OrderBy("created_at DESC"))
	return out, wrap("list friend requests", err)
}

func (s *Postgres) listFriends(ctx context.Context, q sq.SelectBuilder) ([]domain.Friend, error) {
	rows, err := qQuery(ctx, s.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Friend{}
	for rows.Next() {
		f, err := scanFriend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

/* ===================== INVITES ===================== */

// CreateInvite locks the reservation against concurrent changes while build
// validates the invite, then inserts it.
func (s *Postgres) CreateInvite(ctx context.Context, reservationID string, build func(*domain.Reservation) (*domain.Invite, error)) (inv domain.Invite, err error) {
	ctx, span := startSpan(ctx, "CreateInvite")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		r, err := scanReservation(qRow(ctx, tx, psql.Select(reservationColumns...).
			From("reservations").
			Where(sq.Eq{"id": reservationID}).
			Suffix("FOR SHARE")))
		if err != nil {
			return err
		}
		built, err := build(&r)
		if err != nil {
			return err
		}
		if _, err := qExec(ctx, tx, psql.Insert("invites").
			Columns(inviteColumns...).
			Values(built.ID, built.ReservationID, built.From, built.To, built.CreatedAt)); err != nil {
			return err
		}
		inv = *built
		return nil
	})
	return inv, wrap("create invite", err)
}

func (s *Postgres) Invite(ctx context.Context, id string) (inv domain.Invite, err error) {
	ctx, span := startSpan(ctx, "Invite")
	defer func() { endSpan(span, err) }()

	inv, err = scanInvite(qRow(ctx, s.pool, psql.Select(inviteColumns...).From("invites").Where(sq.Eq{"id": id})))
	return inv, wrap("get invite", err)
}

// InvitesFor lists invites addressed to playerID, newest first.
func (s *Postgres) InvitesFor(ctx context.Context, playerID string) (out []domain.Invite, err error) {
	ctx, span := startSpan(ctx, "InvitesFor")
	defer func() { endSpan(span, err) }()

	rows, err := qQuery(ctx, s.pool, psql.Select(inviteColumns...).
		From("invites").
		Where(sq.Eq{"to_id": playerID}).
		OrderBy("created_at DESC"))
	if err != nil {
		return nil, wrap("list invites", err)
	}
	defer rows.Close()

	out = []domain.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, wrap("scan invite", err)
		}
		out = append(out, inv)
	}
	return out, wrap("list invites", rows.Err())
}

// AcceptInvite locks the invite and its reservation, applies fn, writes the
// reservation back and consumes the invite in one transaction.
func (s *Postgres) AcceptInvite(ctx context.Context, id string, fn func(*domain.Invite, *domain.Reservation) error) (r domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "AcceptInvite")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		inv, err := scanInvite(qRow(ctx, tx, psql.Select(inviteColumns...).
			From("invites").
			Where(sq.Eq{"id": id}).
			Suffix("FOR UPDATE")))
		if err != nil {
			return err
		}
		r, _, err = mutateReservation(ctx, tx, inv.ReservationID, func(r *domain.Reservation) (bool, error) {
			return false, fn(&inv, r)
		})
		if err != nil {
			return err
		}
		_, err = qExec(ctx, tx, psql.Delete("invites").Where(sq.Eq{"id": id}))
		return err
	})
	if err != nil {
		return domain.Reservation{}, wrap("accept invite", err)
	}
	return r, nil
}

func (s *Postgres) DeleteInvite(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "DeleteInvite")
	defer func() { endSpan(span, err) }()

	tag, err := qExec(ctx, s.pool, psql.Delete("invites").Where(sq.Eq{"id": id}))
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	return wrap("delete invite", err)
}

/* ===================== AUDIT ===================== */

// LogAction records an audit entry. actorID may be empty for anonymous
// actions.
func (s *Postgres) LogAction(ctx context.Context, actorID, action, details string) (err error) {
	ctx, span := startSpan(ctx, "LogAction")
	defer func() { endSpan(span, err) }()

	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	_, err = qExec(ctx, s.pool, psql.Insert("logs").
		Columns("actor_id", "action", "details").
		Values(actor, action, details))
	return wrap("log action", err)
}
