package internal

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"fieldbook/internal/apperr"
)

// now is swapped in tests.
var now = time.Now

// logAction writes an audit entry. Audit failures are logged and never fail
// the request.
func logAction(c *gin.Context, db Store, actor, action, details string) {
	if err := db.LogAction(c.Request.Context(), actor, action, details); err != nil {
		slog.Warn("audit log failed", "action", action, "actor", actor, "error", err)
	}
}

// fail hands err to the Errors middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func badInput(c *gin.Context, cause error) {
	if cause == nil {
		fail(c, apperr.New(apperr.InvalidInput))
		return
	}
	fail(c, apperr.Wrap(apperr.InvalidInput, cause))
}
