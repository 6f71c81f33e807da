package httpapi

import (
	"math"
	"net/http"
	"strconv"

	"cms-portal/internal/apiclient"
	"cms-portal/internal/audit"
	"cms-portal/internal/cms"
	"cms-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type signInForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	// Next is where to go after signing in; only same-origin paths are honoured.
	Next string `json:"next" form:"next"`
}

type signInView struct {
	Redirect string    `json:"redirect"`
	User     *cms.User `json:"user,omitempty"`
}

// LoginPage and RegisterPage describe the entry forms.
func (h Handlers) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"next": cms.SafeNext(c.Query("next"))})
}

func (h Handlers) RegisterPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"next": cms.SafeNext(c.Query("next")), "roles": []cms.Role{cms.RoleUser}})
}

func (h Handlers) Login(c *gin.Context) {
	form, ok := h.bindSignIn(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	up := h.upstream(c)

	lr, err := up.Auth.Login(ctx, form.Username, form.Password)
	if err != nil {
		if rejectedCredentials(err) {
			h.Audit.LogLoginFailed(ctx, form.Username, c.ClientIP(), audit.ReasonRejected)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.fail(c, err)
		return
	}
	h.establish(c, up, lr.Token, nil, form)
}

// Register self-registers as a User. When the upstream does not hand back a
// token the portal signs in with the same credentials.
func (h Handlers) Register(c *gin.Context) {
	form, ok := h.bindSignIn(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	up := h.upstream(c)

	rr, err := up.Auth.Register(ctx, cms.RegisterInput{Username: form.Username, Password: form.Password, Role: cms.RoleUser})
	if err != nil {
		h.fail(c, err)
		return
	}
	token := rr.Token
	if token == "" {
		lr, err := up.Auth.Login(ctx, form.Username, form.Password)
		if err != nil {
			h.fail(c, err)
			return
		}
		token = lr.Token
	}
	h.Audit.LogRegister(ctx, form.Username, userID(rr.User), string(cms.RoleUser), c.ClientIP())
	h.establish(c, up, token, rr.User, form)
}

func (h Handlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	_ = h.upstream(c).store.ClearToken(ctx)
	h.Audit.LogLogout(ctx, c.ClientIP())
	done(c, http.StatusOK, "/login", signInView{Redirect: "/login"})
}

// bindSignIn parses the form and applies the per-IP throttle.
func (h Handlers) bindSignIn(c *gin.Context) (signInForm, bool) {
	var form signInForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return form, false
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}
	if h.Limiter != nil {
		v, err := h.Limiter.Allow(c.Request.Context(), "signin:"+c.ClientIP())
		if err != nil {
			// The throttle is advisory; an unavailable counter never locks people out.
			logger.FromGin(c).Warn("sign-in throttle unavailable", "err", err)
		} else if !v.Allowed {
			h.Audit.LogLoginFailed(c.Request.Context(), form.Username, c.ClientIP(), audit.ReasonThrottled)
			if v.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(v.RetryAfter.Seconds()))))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return form, false
		}
	}
	return form, true
}

// establish stores the credential and sends the user to their landing page.
func (h Handlers) establish(c *gin.Context, up upstream, token string, user *cms.User, form signInForm) {
	ctx := c.Request.Context()
	if err := up.store.SetToken(ctx, token); err != nil {
		h.fail(c, err)
		return
	}
	if user == nil {
		prof, err := up.Auth.Profile(ctx)
		if err != nil {
			// The session is valid; only the role-based landing page is lost.
			logger.FromGin(c).Warn("profile lookup after sign-in failed", "err", err)
		} else {
			user = &prof
		}
	}
	var role cms.Role
	if user != nil {
		role = user.Role
		h.Audit.LogLogin(ctx, user.Username, user.ID, string(user.Role), c.ClientIP())
	}
	landing := cms.AfterLoginPath(role, form.Next)
	done(c, http.StatusOK, landing, signInView{Redirect: landing, User: user})
}

// rejectedCredentials tells a wrong password apart from an unreachable upstream.
func rejectedCredentials(err error) bool {
	switch apiclient.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

func userID(u *cms.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
