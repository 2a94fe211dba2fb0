package rest

import (
	"net/http"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/transport"
	"storefront-be/internal/user"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Users.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	transport.JSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input user.LoginInput
	if err := transport.Decode(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Users.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	transport.JSON(w, http.StatusOK, res)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.GetByID(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	transport.JSON(w, http.StatusOK, u)
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
