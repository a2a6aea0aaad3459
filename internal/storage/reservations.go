package storage

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"fieldbook/internal/domain"
)

var reservationColumns = []string{
	"id", "field_id", "date",
	"schedule_id", "schedule_start", "schedule_end", "schedule_date",
	"tag_name", "tag_limit", "type", "status", "players", "score",
	"created_by", "created_at", "updated_at",
}

// ReservationFilter narrows ListReservations. Zero fields do not filter.
type ReservationFilter struct {
	FieldID  string
	PlayerID string
	Date     string
	Status   domain.Status
	Open     bool // only reservations with a free place
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		r       domain.Reservation
		typ, st string
	)
	err := row.Scan(
		&r.ID, &r.FieldID, &r.Date,
		&r.Schedule.ID, &r.Schedule.Start, &r.Schedule.End, &r.Schedule.Date,
		&r.Tag.Name, &r.Tag.Limit, &typ, &st, &r.Players, &r.Score,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	r.Type = domain.ReservationType(typ)
	r.Status = domain.Status(st)
	return r, err
}

func reservationValues(r *domain.Reservation) []any {
	return []any{
		r.ID, r.FieldID, r.Date,
		r.Schedule.ID, r.Schedule.Start, r.Schedule.End, r.Schedule.Date,
		r.Tag.Name, r.Tag.Limit, string(r.Type), string(r.Status), nonNil(r.Players), r.Score,
		r.CreatedBy, r.CreatedAt, r.UpdatedAt,
	}
}

func listReservations(ctx context.Context, db querier, q sq.SelectBuilder) ([]domain.Reservation, error) {
	rows, err := qQuery(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateReservation locks the field, loads its reservations on date and
// inserts what build returns. The lock serialises concurrent bookings of the
// same field; the partial unique index backs up the slot check.
func (s *Postgres) CreateReservation(ctx context.Context, fieldID, date string, build func(f *domain.Field, taken []domain.Reservation) (*domain.Reservation, error)) (r domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "CreateReservation")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		f, err := scanField(qRow(ctx, tx, psql.Select(fieldColumns...).
			From("fields").
			Where(sq.Eq{"id": fieldID}).
			Suffix("FOR UPDATE")))
		if err != nil {
			return err
		}
		taken, err := listReservations(ctx, tx, psql.Select(reservationColumns...).
			From("reservations").
			Where(sq.Eq{"field_id": fieldID, "date": date}))
		if err != nil {
			return err
		}
		built, err := build(&f, taken)
		if err != nil {
			return err
		}
		if _, err := qExec(ctx, tx, psql.Insert("reservations").
			Columns(reservationColumns...).
			Values(reservationValues(built)...)); err != nil {
			return err
		}
		r = *built
		return nil
	})
	return r, wrap("create reservation", err)
}

func (s *Postgres) Reservation(ctx context.Context, id string) (r domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "Reservation")
	defer func() { endSpan(span, err) }()

	r, err = scanReservation(qRow(ctx, s.pool, psql.Select(reservationColumns...).
		From("reservations").
		Where(sq.Eq{"id": id})))
	return r, wrap("get reservation", err)
}

// ListReservations returns matching reservations by date and slot start,
// newest date first.
func (s *Postgres) ListReservations(ctx context.Context, f ReservationFilter) (out []domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "ListReservations")
	defer func() { endSpan(span, err) }()

	out, err = listReservations(ctx, s.pool, f.query())
	return out, wrap("list reservations", err)
}

func (f ReservationFilter) query() sq.SelectBuilder {
	q := psql.Select(reservationColumns...).
		From("reservations").
		OrderBy("date DESC", "schedule_start ASC", "id ASC").
		Limit(500)
	if f.FieldID != "" {
		q = q.Where(sq.Eq{"field_id": f.FieldID})
	}
	if f.PlayerID != "" {
		q = q.Where(sq.Expr("? = ANY(players)", f.PlayerID))
	}
	if f.Date != "" {
		q = q.Where(sq.Eq{"date": f.Date})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Open {
		q = q.Where("cardinality(players) < tag_limit")
	}
	return q
}

// MutateReservation locks the reservation, applies fn and either writes the
// result back or deletes the row when fn asks for removal. It returns the
// reservation as fn left it.
func (s *Postgres) MutateReservation(ctx context.Context, id string, fn func(*domain.Reservation) (remove bool, err error)) (r domain.Reservation, removed bool, err error) {
	ctx, span := startSpan(ctx, "MutateReservation")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		r, removed, err = mutateReservation(ctx, tx, id, fn)
		return err
	})
	if err != nil {
		return domain.Reservation{}, false, wrap("mutate reservation", err)
	}
	return r, removed, nil
}

// FinishReservation applies fn to the locked reservation, writes it back and
// credits each of its players with exp, all in one transaction.
func (s *Postgres) FinishReservation(ctx context.Context, id string, exp int, fn func(*domain.Reservation) error) (r domain.Reservation, err error) {
	ctx, span := startSpan(ctx, "FinishReservation")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		r, _, err = mutateReservation(ctx, tx, id, func(r *domain.Reservation) (bool, error) {
			return false, fn(r)
		})
		if err != nil {
			return err
		}
		return awardPlayers(ctx, tx, r.Players, exp, r.ID)
	})
	if err != nil {
		return domain.Reservation{}, wrap("finish reservation", err)
	}
	return r, nil
}

// mutateReservation is the locked read-modify-write shared by the
// reservation mutations. UpdatedAt is written as fn leaves it.
func mutateReservation(ctx context.Context, tx pgx.Tx, id string, fn func(*domain.Reservation) (bool, error)) (domain.Reservation, bool, error) {
	r, err := lockReservation(ctx, tx, id)
	if err != nil {
		return r, false, err
	}
	removed, err := fn(&r)
	if err != nil {
		return r, false, err
	}
	if removed {
		_, err = qExec(ctx, tx, psql.Delete("reservations").Where(sq.Eq{"id": id}))
		return r, true, err
	}
	return r, false, updateReservation(ctx, tx, &r)
}

func lockReservation(ctx context.Context, tx pgx.Tx, id string) (domain.Reservation, error) {
	return scanReservation(qRow(ctx, tx, psql.Select(reservationColumns...).
		From("reservations").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE")))
}

func updateReservation(ctx context.Context, tx pgx.Tx, r *domain.Reservation) error {
	_, err := qExec(ctx, tx, psql.Update("reservations").
		Set("status", string(r.Status)).
		Set("players", nonNil(r.Players)).
		Set("score", r.Score).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"id": r.ID}))
	return err
}

// awardPlayers adds exp to each player and records the reservation in their
// history.
func awardPlayers(ctx context.Context, db querier, playerIDs []string, exp int, reservationID string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	_, err := qExec(ctx, db, psql.Update("players").
		Set("exp", sq.Expr("exp + ?", exp)).
		Set("history", sq.Expr("array_append(history, ?::text)", reservationID)).
		Where(sq.Eq{"id": playerIDs}))
	return err
}
