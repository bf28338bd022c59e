package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eduportal/internal/auth"
	"eduportal/internal/forms"
	"eduportal/internal/toast"
)

func (h *Handler) login(c *gin.Context) {
	var f forms.Login
	if err := bindForm(c, &f); err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	ctx := c.Request.Context()
	res, err := h.Upstream.Login(ctx, f)
	if err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	s, err := h.Sessions.Begin(ctx, res.User, res.Token)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	token, exp, err := auth.Issue(s.ID, string(s.User.Role), h.JWTIssuer, h.JWTSigningKey, h.TokenTTL)
	if err != nil {
		if endErr := h.Sessions.End(ctx, s.ID); endErr != nil {
			h.Log.Warn("ending unissued session failed", zap.String("session", s.ID), zap.Error(endErr))
		}
		h.fail(c, err, nil)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.TokenTTL.Seconds()), "/", "", h.SecureCookie, true)
	auth.SetCurrent(c, s)
	h.Log.Info("login", zap.String("user", s.User.ID), zap.String("role", string(s.User.Role)))
	h.notify(c, toast.Success, "Welcome back, "+s.User.Name)
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": exp, "user": s.User})
}

func (h *Handler) logout(c *gin.Context) {
	s, _ := auth.Current(c)
	if err := h.Sessions.End(c.Request.Context(), s.ID); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) me(c *gin.Context) {
	s, _ := auth.Current(c)
	c.JSON(http.StatusOK, gin.H{"user": s.User, "isAuthenticated": s.IsAuthenticated, "expiresAt": s.ExpiresAt})
}

func (h *Handler) createOrganization(c *gin.Context) {
	var f forms.Organization
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.Upstream.CreateOrganization(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusCreated, res.Message, "Organization created", res.Data)
}
