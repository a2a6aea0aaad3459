package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: apperr.DataNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: apperr.DataNotFound},
		{name: "username", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, want: apperr.UsernameTaken},
		{name: "slot", err: &pgconn.PgError{Code: "23505", ConstraintName: "reservations_active_slot_idx"}, want: apperr.SlotTaken},
		{name: "friend pair", err: &pgconn.PgError{Code: "23505", ConstraintName: "friends_pair_idx"}, want: apperr.FriendExists},
		{name: "invite", err: &pgconn.PgError{Code: "23505", ConstraintName: "invites_reservation_id_to_id_key"}, want: apperr.InviteExists},
		{name: "other unique", err: &pgconn.PgError{Code: "23505", ConstraintName: "players_user_id_key"}, want: apperr.Internal},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, want: apperr.Internal},
		{name: "domain error passes through", err: apperr.New(apperr.AlreadyFull), want: apperr.AlreadyFull},
		{name: "plain", err: errors.New("connection reset"), want: apperr.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap("op", tt.err)
			if apperr.KindOf(got) != tt.want {
				t.Fatalf("KindOf(wrap()) = %s, want %s (err %v)", apperr.KindOf(got), tt.want, got)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("wrap() lost the cause: %v", got)
			}
		})
	}
	if wrap("op", nil) != nil {
		t.Fatal("wrap(nil) should be nil")
	}
}

func TestReservationFilterQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    ReservationFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:     "no filter",
			filter:   ReservationFilter{},
			wantArgs: nil,
		},
		{
			name:      "field and date",
			filter:    ReservationFilter{FieldID: "f1", Date: "2026-05-01"},
			wantWhere: "WHERE field_id = $1 AND date = $2",
			wantArgs:  []any{"f1", "2026-05-01"},
		},
		{
			name:      "player and status",
			filter:    ReservationFilter{PlayerID: "p1", Status: domain.StatusUpcoming},
			wantWhere: "WHERE $1 = ANY(players) AND status = $2",
			wantArgs:  []any{"p1", "upcoming"},
		},
		{
			name:      "open seats only",
			filter:    ReservationFilter{FieldID: "f1", Status: domain.StatusUpcoming, Open: true},
			wantWhere: "WHERE field_id = $1 AND status = $2 AND cardinality(players) < tag_limit",
			wantArgs:  []any{"f1", "upcoming"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.filter.query().ToSql()
			if err != nil {
				t.Fatalf("ToSql() error = %v", err)
			}
			if tt.wantWhere == "" && strings.Contains(sql, "WHERE") {
				t.Errorf("unexpected WHERE in %q", sql)
			}
			if tt.wantWhere != "" && !strings.Contains(sql, tt.wantWhere) {
				t.Errorf("sql = %q, want it to contain %q", sql, tt.wantWhere)
			}
			if !strings.HasSuffix(sql, "ORDER BY date DESC, schedule_start ASC, id ASC LIMIT 500") {
				t.Errorf("sql = %q, missing ordering", sql)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestReservationValuesMatchColumns(t *testing.T) {
	r := &domain.Reservation{ID: "r1"}
	if got := len(reservationValues(r)); got != len(reservationColumns) {
		t.Fatalf("reservationValues has %d values for %d columns", got, len(reservationColumns))
	}
	if v := reservationValues(r)[11]; v == nil || len(v.([]string)) != 0 {
		t.Fatalf("players value = %#v, want empty slice", v)
	}
}

func TestSchemaDeclaresMappedConstraints(t *testing.T) {
	for name := range conflicts {
		if !strings.Contains(schema, name) {
			t.Errorf("schema.sql does not declare %s", name)
		}
	}
}
