package internal

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
	"fieldbook/internal/storage"
)

const (
	bcryptCost     = 10
	minPasswordLen = 6
	tokenIssuer    = "fieldbook"
)

func Register(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username  string `json:"username"`
			Password  string `json:"password"`
			Password2 string `json:"password2"`
			Role      string `json:"role"` // player|field
			Name      string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Name = strings.TrimSpace(req.Name)
		role := domain.Role(req.Role)
		if req.Username == "" || req.Password == "" || req.Name == "" ||
			req.Password != req.Password2 || len(req.Password) < minPasswordLen || !role.Valid() {
			badInput(c, nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			fail(c, err)
			return
		}

		ts := now().UTC()
		acc := storage.Account{
			User:     domain.User{ID: domain.NewID(), Username: req.Username, Role: role, CreatedAt: ts},
			PassHash: string(hash),
		}
		if role == domain.RolePlayer {
			acc.Player = &domain.Player{ID: domain.NewID(), UserID: acc.User.ID, Name: req.Name, History: []string{}, CreatedAt: ts}
		} else {
			acc.Field = &domain.Field{ID: domain.NewID(), UserID: acc.User.ID, Name: req.Name, CreatedAt: ts}
		}
		if err := db.CreateAccount(c.Request.Context(), acc); err != nil {
			fail(c, err)
			return
		}

		logAction(c, db, acc.User.ID, "register", "role="+req.Role)
		c.JSON(http.StatusCreated, gin.H{"ok": true, "id": acc.User.ID})
	}
}

func Login(db Store, secret string, ttl time.Duration, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badInput(c, err)
			return
		}
		ctx := c.Request.Context()

		u, passHash, err := db.UserByUsername(ctx, strings.TrimSpace(req.Username))
		if err != nil {
			if apperr.IsKind(err, apperr.DataNotFound) {
				err = apperr.Wrap(apperr.InvalidCredentials, err)
			}
			fail(c, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(passHash), []byte(req.Password)) != nil {
			fail(c, apperr.New(apperr.InvalidCredentials))
			return
		}

		var pid string
		if u.Role == domain.RolePlayer {
			p, err := db.PlayerByUser(ctx, u.ID)
			if err != nil {
				fail(c, err)
				return
			}
			pid = p.ID
		} else {
			f, err := db.FieldByUser(ctx, u.ID)
			if err != nil {
				fail(c, err)
				return
			}
			pid = f.ID
		}

		issued := now()
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
			UserID:    u.ID,
			Role:      string(u.Role),
			ProfileID: pid,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.ID,
				ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
				IssuedAt:  jwt.NewNumericDate(issued),
				Issuer:    tokenIssuer,
			},
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			fail(c, err)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, s, int(ttl.Seconds()), "/", "", secureCookie, true)

		logAction(c, db, u.ID, "login", "success")
		c.JSON(http.StatusOK, gin.H{"token": s, "role": u.Role, "profile_id": pid})
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Me returns the caller's account with its profile.
func Me(db Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		u, err := db.UserByID(ctx, uid(c))
		if err != nil {
			fail(c, err)
			return
		}

		var profile any
		if u.Role == domain.RolePlayer {
			profile, err = db.PlayerByID(ctx, profileID(c))
		} else {
			profile, err = db.FieldByID(ctx, profileID(c))
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u, "profile": profile})
	}
}
