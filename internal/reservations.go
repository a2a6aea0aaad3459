package internal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
	"fieldbook/internal/storage"
)

// POST /api/reservations
func CreateReservation(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		player := profileID(c)

		r, err := db.CreateReservation(c.Request.Context(), req.FieldID, req.Date,
			func(f *domain.Field, taken []domain.Reservation) (*domain.Reservation, error) {
				return domain.NewReservation(f, player, req.NewReservationParams, taken, now().UTC())
			})
		if err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "create_reservation", "reservation_id="+r.ID)
		c.JSON(http.StatusCreated, r.View(now()))
	}
}

func GetReservation(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := db.Reservation(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, r.View(now()))
	}
}

// listReservations answers with the reservations matching filter. A
// "playing" status is derived, so it is served from today's upcoming ones.
func listReservations(c *gin.Context, db Store, filter storage.ReservationFilter) {
	t := now()
	want := filter.Status
	switch want {
	case "", domain.StatusUpcoming, domain.StatusEnded:
	case domain.StatusPlaying:
		today := t.Format(time.DateOnly)
		if filter.Date != "" && filter.Date != today {
			c.JSON(http.StatusOK, []domain.Reservation{})
			return
		}
		filter.Status = domain.StatusUpcoming
		filter.Date = today
	default:
		badInput(c, nil)
		return
	}

	rs, err := db.ListReservations(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]domain.Reservation, 0, len(rs))
	for _, v := range reservationViews(rs, t) {
		if want == domain.StatusPlaying && v.Status != domain.StatusPlaying {
			continue
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/fields/:id/reservations?date=&status=
func FieldReservations(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if date != "" {
			if err := domain.ValidateDate(date); err != nil {
				fail(c, err)
				return
			}
		}
		listReservations(c, db, storage.ReservationFilter{
			FieldID: c.Param("id"),
			Date:    date,
			Status:  domain.Status(c.Query("status")),
		})
	}
}

// GET /api/fields/:id/open lists upcoming reservations with room left.
func OpenReservations(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		listReservations(c, db, storage.ReservationFilter{
			FieldID: c.Param("id"),
			Status:  domain.StatusUpcoming,
			Open:    true,
		})
	}
}

// GET /api/my/reservations?status=
func MyReservations(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		listReservations(c, db, storage.ReservationFilter{
			PlayerID: profileID(c),
			Status:   domain.Status(c.Query("status")),
		})
	}
}

// mutate applies fn to the reservation named in the path. The reservation is
// deleted when fn asks for removal.
func mutate(c *gin.Context, db Store, action string, fn func(*domain.Reservation) (bool, error)) (domain.Reservation, bool, bool) {
	id := c.Param("id")
	r, removed, err := db.MutateReservation(c.Request.Context(), id, func(r *domain.Reservation) (bool, error) {
		remove, err := fn(r)
		if err == nil {
			r.UpdatedAt = now().UTC()
		}
		return remove, err
	})
	if err != nil {
		fail(c, err)
		return domain.Reservation{}, false, false
	}
	logAction(c, db, uid(c), action, "reservation_id="+id)
	return r, removed, true
}

func respond(c *gin.Context, r domain.Reservation, removed bool) {
	if removed {
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true})
		return
	}
	c.JSON(http.StatusOK, r.View(now()))
}

func JoinReservation(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		player := profileID(c)
		r, removed, ok := mutate(c, db, "join_reservation", func(r *domain.Reservation) (bool, error) {
			return false, r.Join(player)
		})
		if ok {
			respond(c, r, removed)
		}
	}
}

// LeaveReservation removes the caller; the last player out deletes the
// reservation.
func LeaveReservation(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		player := profileID(c)
		r, removed, ok := mutate(c, db, "leave_reservation", func(r *domain.Reservation) (bool, error) {
			if err := r.Leave(player); err != nil {
				return false, err
			}
			return r.Empty(), nil
		})
		if ok {
			respond(c, r, removed)
		}
	}
}

func KickPlayer(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRef
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		field := profileID(c)
		r, removed, ok := mutate(c, db, "kick_player", func(r *domain.Reservation) (bool, error) {
			if err := r.Kick(field, req.PlayerID); err != nil {
				return false, err
			}
			return r.Empty(), nil
		})
		if ok {
			respond(c, r, removed)
		}
	}
}

// finish ends the reservation named in the path through fn and credits its
// players with exp in the same transaction.
func finish(c *gin.Context, db Store, action string, exp int, fn func(*domain.Reservation) error) {
	id := c.Param("id")
	r, err := db.FinishReservation(c.Request.Context(), id, exp, func(r *domain.Reservation) error {
		if err := fn(r); err != nil {
			return err
		}
		r.UpdatedAt = now().UTC()
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	logAction(c, db, uid(c), action, "reservation_id="+id)
	c.JSON(http.StatusOK, r.View(now()))
}

func ScoreReservation(db Store, exp int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Wrap(apperr.InvalidScore, err))
			return
		}
		field := profileID(c)
		finish(c, db, "score_reservation", exp, func(r *domain.Reservation) error {
			return r.SetScore(field, req.Score)
		})
	}
}

func EndReservation(db Store, exp int) gin.HandlerFunc {
	return func(c *gin.Context) {
		field := profileID(c)
		finish(c, db, "end_reservation", exp, func(r *domain.Reservation) error {
			return r.End(field)
		})
	}
}

func DeleteReservation(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		field := profileID(c)
		r, removed, ok := mutate(c, db, "delete_reservation", func(r *domain.Reservation) (bool, error) {
			if err := r.CheckDelete(field); err != nil {
				return false, err
			}
			return true, nil
		})
		if ok {
			respond(c, r, removed)
		}
	}
}
