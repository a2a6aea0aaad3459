package internal

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
	"fieldbook/internal/storage"
)

// ------------------- Players -------------------

func MyPlayer(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := db.PlayerByID(c.Request.Context(), profileID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func GetPlayer(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := db.PlayerByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateMyPlayer changes the caller's name and photo URL.
func UpdateMyPlayer(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		ctx := c.Request.Context()

		p, err := db.PlayerByID(ctx, profileID(c))
		if err != nil {
			fail(c, err)
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				badInput(c, nil)
				return
			}
			p.Name = name
		}
		if req.Photo != nil {
			p.Photo = strings.TrimSpace(*req.Photo)
		}
		if err := db.UpdatePlayer(ctx, p); err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "update_player", "player_id="+p.ID)
		c.JSON(http.StatusOK, p)
	}
}

// ------------------- Fields -------------------

func MyField(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := db.FieldByID(c.Request.Context(), profileID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func GetField(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := db.FieldByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// editField applies fn to the caller's field and answers with the result.
func editField(c *gin.Context, db Store, action string, fn func(*domain.Field) error) {
	f, err := db.UpdateField(c.Request.Context(), profileID(c), fn)
	if err != nil {
		fail(c, err)
		return
	}
	logAction(c, db, uid(c), action, "field_id="+f.ID)
	c.JSON(http.StatusOK, f)
}

func UpdateMyField(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fieldUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		editField(c, db, "update_field", func(f *domain.Field) error {
			if req.Name != nil {
				name := strings.TrimSpace(*req.Name)
				if name == "" {
					return apperr.New(apperr.InvalidInput)
				}
				f.Name = name
			}
			if req.Address != nil {
				f.Address = strings.TrimSpace(*req.Address)
			}
			lat, lng := f.Lat, f.Lng
			if req.Lat != nil {
				lat = *req.Lat
			}
			if req.Lng != nil {
				lng = *req.Lng
			}
			if err := domain.ValidateCoordinates(lat, lng); err != nil {
				return err
			}
			f.Lat, f.Lng = lat, lng
			if req.Photos != nil {
				f.Photos = *req.Photos
			}
			return nil
		})
	}
}

func AddTag(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tag domain.Tag
		if err := c.ShouldBindJSON(&tag); err != nil {
			badInput(c, err)
			return
		}
		editField(c, db, "add_tag", func(f *domain.Field) error {
			return f.AddTag(tag)
		})
	}
}

func RemoveTag(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		editField(c, db, "remove_tag", func(f *domain.Field) error {
			return f.RemoveTag(name)
		})
	}
}

func AddSchedule(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s domain.Schedule
		if err := c.ShouldBindJSON(&s); err != nil {
			badInput(c, err)
			return
		}
		editField(c, db, "add_schedule", func(f *domain.Field) error {
			_, err := f.AddSchedule(s)
			return err
		})
	}
}

// RemoveSchedule drops a slot. Reservations already made keep their
// snapshot of it.
func RemoveSchedule(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		editField(c, db, "remove_schedule", func(f *domain.Field) error {
			return f.RemoveSchedule(id)
		})
	}
}

// GET /api/fields?tag=&lat=&lng=&radius=
func ExploreFields(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields, err := db.ListFields(c.Request.Context(), strings.TrimSpace(c.Query("tag")))
		if err != nil {
			fail(c, err)
			return
		}

		latStr, lngStr := c.Query("lat"), c.Query("lng")
		if latStr == "" && lngStr == "" {
			c.JSON(http.StatusOK, fields)
			return
		}
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lng, err2 := strconv.ParseFloat(lngStr, 64)
		if err1 != nil || err2 != nil || domain.ValidateCoordinates(lat, lng) != nil {
			badInput(c, nil)
			return
		}
		var radius float64
		if r := c.Query("radius"); r != "" {
			if radius, err = strconv.ParseFloat(r, 64); err != nil || radius < 0 {
				badInput(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, domain.Nearby(fields, lat, lng, radius))
	}
}

// GET /api/fields/:id/slots?date=YYYY-MM-DD
func FieldSlots(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if err := domain.ValidateDate(date); err != nil {
			fail(c, err)
			return
		}
		ctx := c.Request.Context()

		f, err := db.FieldByID(ctx, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		taken, err := db.ListReservations(ctx, storage.ReservationFilter{FieldID: f.ID, Date: date})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f.AvailableSchedules(date, taken))
	}
}

// Health reports whether the database answers.
func Health(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
