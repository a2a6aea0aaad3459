package internal

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"fieldbook/internal/domain"
)

type Options struct {
	ServiceName  string // server span attribute
	Secret       string
	TokenTTL     time.Duration
	CookieSecure bool
	ExpPerGame   int
	Logger       *slog.Logger
}

// NewRouter wires every route of the API onto a fresh engine.
func NewRouter(db Store, opt Options) *gin.Engine {
	r := gin.New()
	r.Use(otelgin.Middleware(opt.ServiceName), gin.Recovery(), RequestLogger(opt.Logger), Errors(opt.Logger))

	r.GET("/healthz", Health(db))

	auth := Auth(opt.Secret)
	player := RequireRole(domain.RolePlayer)
	owner := RequireRole(domain.RoleField)

	api := r.Group("/api")
	{
		api.POST("/auth/register", Register(db))
		api.POST("/auth/login", Login(db, opt.Secret, opt.TokenTTL, opt.CookieSecure))
		api.POST("/auth/logout", Logout())
		api.GET("/me", auth, Me(db))

		// players
		api.GET("/players/me", auth, player, MyPlayer(db))
		api.PUT("/players/me", auth, player, UpdateMyPlayer(db))
		api.GET("/players/:id", auth, GetPlayer(db))

		// fields (owner side)
		api.GET("/fields/me", auth, owner, MyField(db))
		api.PUT("/fields/me", auth, owner, UpdateMyField(db))
		api.POST("/fields/me/tags", auth, owner, AddTag(db))
		api.DELETE("/fields/me/tags/:name", auth, owner, RemoveTag(db))
		api.POST("/fields/me/schedules", auth, owner, AddSchedule(db))
		api.DELETE("/fields/me/schedules/:id", auth, owner, RemoveSchedule(db))

		// explore
		api.GET("/fields", auth, ExploreFields(db))
		api.GET("/fields/:id", auth, GetField(db))
		api.GET("/fields/:id/slots", auth, FieldSlots(db)) // ?date=YYYY-MM-DD
		api.GET("/fields/:id/reservations", auth, FieldReservations(db))
		api.GET("/fields/:id/open", auth, OpenReservations(db))

		// reservations
		api.POST("/reservations", auth, player, CreateReservation(db))
		api.GET("/reservations/:id", auth, GetReservation(db))
		api.GET("/my/reservations", auth, player, MyReservations(db))
		api.POST("/reservations/:id/join", auth, player, JoinReservation(db))
		api.POST("/reservations/:id/leave", auth, player, LeaveReservation(db))
		api.POST("/reservations/:id/invite", auth, player, SendInvite(db))
		api.POST("/reservations/:id/kick", auth, owner, KickPlayer(db))
		api.POST("/reservations/:id/score", auth, owner, ScoreReservation(db, opt.ExpPerGame))
		api.POST("/reservations/:id/end", auth, owner, EndReservation(db, opt.ExpPerGame))
		api.DELETE("/reservations/:id", auth, owner, DeleteReservation(db))

		// friends
		api.GET("/friends", auth, player, ListFriends(db))
		api.GET("/friends/requests", auth, player, ListFriendRequests(db))
		api.POST("/friends/:playerId", auth, player, RequestFriend(db))
		api.POST("/friends/:playerId/accept", auth, player, AcceptFriend(db))
		api.DELETE("/friends/:playerId", auth, player, RemoveFriend(db))

		// invites
		api.GET("/invites", auth, player, ListInvites(db))
		api.POST("/invites/:id/accept", auth, player, AcceptInvite(db))
		api.DELETE("/invites/:id", auth, player, DeclineInvite(db))
	}

	return r
}
