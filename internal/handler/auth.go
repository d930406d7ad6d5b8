package handler

import (
	"net/http"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	"github.com/Camillus83/ImageUploadAPI/internal/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	type bodyJson struct {
		Username string `validate:"required" json:"username"`
		Password string `validate:"required" json:"password"`
		Role     string `json:"role"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.auth.Register(domain.Credentials{Username: body.Username, Password: body.Password}, body.Role)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]interface{}{
		"id":       user.Id,
		"username": user.Username,
		"role":     user.Role.Name,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := utils.DecodeValidate(r.Body, &creds); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	token, err := h.auth.Login(creds)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    token,
		MaxAge:   int(h.cfg.Public.JwtTTL.Std().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, map[string]string{"access_token": token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.Users()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	type userJson struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Active   bool   `json:"is_active"`
	}
	out := make([]userJson, 0, len(users))
	for _, u := range users {
		roleName := ""
		if u.Role != nil {
			roleName = u.Role.Name
		}
		out = append(out, userJson{Username: u.Username, Role: roleName, Active: u.Active})
	}
	writeJSON(w, out)
}
