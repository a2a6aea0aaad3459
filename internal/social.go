package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
)

// ------------------- Friends -------------------

func ListFriends(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me := profileID(c)
		fs, err := db.Friends(c.Request.Context(), me)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, friendViews(fs, me))
	}
}

// ListFriendRequests lists pending requests sent to the caller.
func ListFriendRequests(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me := profileID(c)
		fs, err := db.FriendRequests(c.Request.Context(), me)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, friendViews(fs, me))
	}
}

// POST /api/friends/:playerId
func RequestFriend(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, other := profileID(c), c.Param("playerId")
		ctx := c.Request.Context()

		if me != other {
			if _, err := db.PlayerByID(ctx, other); err != nil {
				fail(c, err)
				return
			}
		}
		existing, err := db.FriendBetween(ctx, me, other)
		if err != nil {
			fail(c, err)
			return
		}
		f, err := domain.NewFriendRequest(me, other, existing, now().UTC())
		if err != nil {
			fail(c, err)
			return
		}
		if err := db.CreateFriend(ctx, *f); err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "friend_request", "player_id="+other)
		c.JSON(http.StatusCreated, newFriendView(*f, me))
	}
}

func AcceptFriend(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, other := profileID(c), c.Param("playerId")
		f, err := db.MutateFriend(c.Request.Context(), me, other, func(f *domain.Friend) (bool, error) {
			return false, f.Accept(me)
		})
		if err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "friend_accept", "player_id="+other)
		c.JSON(http.StatusOK, newFriendView(f, me))
	}
}

// RemoveFriend rejects a pending request or ends a friendship. Either side
// may do it.
func RemoveFriend(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, other := profileID(c), c.Param("playerId")
		_, err := db.MutateFriend(c.Request.Context(), me, other, func(f *domain.Friend) (bool, error) {
			if !f.Involves(me) {
				return false, apperr.New(apperr.Forbidden)
			}
			return true, nil
		})
		if err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "friend_remove", "player_id="+other)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// ------------------- Invites -------------------

func ListInvites(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		invs, err := db.InvitesFor(c.Request.Context(), profileID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, invs)
	}
}

// POST /api/reservations/:id/invite
func SendInvite(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRef
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		me := profileID(c)
		ctx := c.Request.Context()

		if req.PlayerID != me {
			if _, err := db.PlayerByID(ctx, req.PlayerID); err != nil {
				fail(c, err)
				return
			}
		}
		inv, err := db.CreateInvite(ctx, c.Param("id"), func(r *domain.Reservation) (*domain.Invite, error) {
			return domain.NewInvite(r, me, req.PlayerID, now().UTC())
		})
		if err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "send_invite", "invite_id="+inv.ID)
		c.JSON(http.StatusCreated, inv)
	}
}

// invitedTo loads the invite in the path and checks it is addressed to the
// caller.
func invitedTo(c *gin.Context, db Store) (domain.Invite, bool) {
	inv, err := db.Invite(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return domain.Invite{}, false
	}
	if inv.To != profileID(c) {
		fail(c, apperr.New(apperr.Forbidden))
		return domain.Invite{}, false
	}
	return inv, true
}

// AcceptInvite joins the reservation under the usual join rules and consumes
// the invite in the same transaction.
func AcceptInvite(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, id := profileID(c), c.Param("id")
		r, err := db.AcceptInvite(c.Request.Context(), id, func(inv *domain.Invite, r *domain.Reservation) error {
			if inv.To != me {
				return apperr.New(apperr.Forbidden)
			}
			if err := r.Join(me); err != nil {
				return err
			}
			r.UpdatedAt = now().UTC()
			return nil
		})
		if err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "accept_invite", "invite_id="+id)
		c.JSON(http.StatusOK, r.View(now()))
	}
}

func DeclineInvite(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, ok := invitedTo(c, db)
		if !ok {
			return
		}
		if err := db.DeleteInvite(c.Request.Context(), inv.ID); err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, uid(c), "decline_invite", "invite_id="+inv.ID)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
