package storage

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"fieldbook/internal/domain"
)

// Account is a user together with the profile its role requires.
type Account struct {
	User     domain.User
	PassHash string
	Player   *domain.Player
	Field    *domain.Field
}

var (
	playerColumns = []string{"id", "user_id", "name", "photo", "exp", "history", "created_at"}
	fieldColumns  = []string{"id", "user_id", "name", "address", "lat", "lng", "tags", "photos", "schedules", "created_at"}
)

// CreateAccount inserts the user and its profile in one transaction.
func (s *Postgres) CreateAccount(ctx context.Context, acc Account) (err error) {
	ctx, span := startSpan(ctx, "CreateAccount")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		u := acc.User
		if _, err := qExec(ctx, tx, psql.Insert("users").
			Columns("id", "username", "pass_hash", "role", "created_at").
			Values(u.ID, u.Username, acc.PassHash, string(u.Role), u.CreatedAt)); err != nil {
			return err
		}
		if p := acc.Player; p != nil {
			if _, err := qExec(ctx, tx, psql.Insert("players").
				Columns(playerColumns...).
				Values(p.ID, p.UserID, p.Name, p.Photo, p.Exp, nonNil(p.History), p.CreatedAt)); err != nil {
				return err
			}
		}
		if f := acc.Field; f != nil {
			if _, err := qExec(ctx, tx, psql.Insert("fields").
				Columns(fieldColumns...).
				Values(f.ID, f.UserID, f.Name, f.Address, f.Lat, f.Lng,
					nonNilTags(f.Tags), nonNil(f.Photos), nonNilSchedules(f.Schedules), f.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("create account", err)
}

// UserByUsername returns the user and its password hash.
func (s *Postgres) UserByUsername(ctx context.Context, username string) (u domain.User, passHash string, err error) {
	ctx, span := startSpan(ctx, "UserByUsername")
	defer func() { endSpan(span, err) }()

	var role string
	err = qRow(ctx, s.pool, psql.Select("id", "username", "role", "created_at", "pass_hash").
		From("users").
		Where(sq.Eq{"username": username})).
		Scan(&u.ID, &u.Username, &role, &u.CreatedAt, &passHash)
	u.Role = domain.Role(role)
	return u, passHash, wrap("get user by username", err)
}

func (s *Postgres) UserByID(ctx context.Context, id string) (u domain.User, err error) {
	ctx, span := startSpan(ctx, "UserByID")
	defer func() { endSpan(span, err) }()

	var role string
	err = qRow(ctx, s.pool, psql.Select("id", "username", "role", "created_at").
		From("users").
		Where(sq.Eq{"id": id})).
		Scan(&u.ID, &u.Username, &role, &u.CreatedAt)
	u.Role = domain.Role(role)
	return u, wrap("get user", err)
}

/* ===================== PLAYERS ===================== */

func scanPlayer(row pgx.Row) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Photo, &p.Exp, &p.History, &p.CreatedAt)
	return p, err
}

func (s *Postgres) PlayerByID(ctx context.Context, id string) (p domain.Player, err error) {
	ctx, span := startSpan(ctx, "PlayerByID")
	defer func() { endSpan(span, err) }()

	p, err = scanPlayer(qRow(ctx, s.pool, psql.Select(playerColumns...).From("players").Where(sq.Eq{"id": id})))
	return p, wrap("get player", err)
}

func (s *Postgres) PlayerByUser(ctx context.Context, userID string) (p domain.Player, err error) {
	ctx, span := startSpan(ctx, "PlayerByUser")
	defer func() { endSpan(span, err) }()

	p, err = scanPlayer(qRow(ctx, s.pool, psql.Select(playerColumns...).From("players").Where(sq.Eq{"user_id": userID})))
	return p, wrap("get player by user", err)
}

// UpdatePlayer writes the editable profile columns.
func (s *Postgres) UpdatePlayer(ctx context.Context, p domain.Player) (err error) {
	ctx, span := startSpan(ctx, "UpdatePlayer")
	defer func() { endSpan(span, err) }()

	tag, err := qExec(ctx, s.pool, psql.Update("players").
		Set("name", p.Name).
		Set("photo", p.Photo).
		Where(sq.Eq{"id": p.ID}))
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	return wrap("update player", err)
}

/* ===================== FIELDS ===================== */

func scanField(row pgx.Row) (domain.Field, error) {
	var f domain.Field
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Address, &f.Lat, &f.Lng, &f.Tags, &f.Photos, &f.Schedules, &f.CreatedAt)
	return f, err
}

func (s *Postgres) FieldByID(ctx context.Context, id string) (f domain.Field, err error) {
	ctx, span := startSpan(ctx, "FieldByID")
	defer func() { endSpan(span, err) }()

	f, err = scanField(qRow(ctx, s.pool, psql.Select(fieldColumns...).From("fields").Where(sq.Eq{"id": id})))
	return f, wrap("get field", err)
}

func (s *Postgres) FieldByUser(ctx context.Context, userID string) (f domain.Field, err error) {
	ctx, span := startSpan(ctx, "FieldByUser")
	defer func() { endSpan(span, err) }()

	f, err = scanField(qRow(ctx, s.pool, psql.Select(fieldColumns...).From("fields").Where(sq.Eq{"user_id": userID})))
	return f, wrap("get field by user", err)
}

// UpdateField locks the field row, applies fn and writes the result back.
func (s *Postgres) UpdateField(ctx context.Context, id string, fn func(*domain.Field) error) (f domain.Field, err error) {
	ctx, span := startSpan(ctx, "UpdateField")
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		f, err = scanField(qRow(ctx, tx, psql.Select(fieldColumns...).
			From("fields").
			Where(sq.Eq{"id": id}).
			Suffix("FOR UPDATE")))
		if err != nil {
			return err
		}
		if err := fn(&f); err != nil {
			return err
		}
		_, err = qExec(ctx, tx, psql.Update("fields").
			Set("name", f.Name).
			Set("address", f.Address).
			Set("lat", f.Lat).
			Set("lng", f.Lng).
			Set("tags", nonNilTags(f.Tags)).
			Set("photos", nonNil(f.Photos)).
			Set("schedules", nonNilSchedules(f.Schedules)).
			Where(sq.Eq{"id": id}))
		return err
	})
	return f, wrap("update field", err)
}

// ListFields returns every field, or the fields offering tag when tag is
// set, ordered by name.
func (s *Postgres) ListFields(ctx context.Context, tag string) (out []domain.Field, err error) {
	ctx, span := startSpan(ctx, "ListFields")
	defer func() { endSpan(span, err) }()

	q := psql.Select(fieldColumns...).From("fields").OrderBy("name ASC", "id ASC")
	if tag != "" {
		q = q.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(tags) t WHERE lower(t->>'name') = ?)",
			strings.ToLower(tag),
		))
	}
	rows, err := qQuery(ctx, s.pool, q)
	if err != nil {
		return nil, wrap("list fields", err)
	}
	defer rows.Close()

	out = []domain.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, wrap("scan field", err)
		}
		out = append(out, f)
	}
	return out, wrap("list fields", rows.Err())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilTags(t []domain.Tag) []domain.Tag {
	if t == nil {
		return []domain.Tag{}
	}
	return t
}

func nonNilSchedules(s []domain.Schedule) []domain.Schedule {
	if s == nil {
		return []domain.Schedule{}
	}
	return s
}
