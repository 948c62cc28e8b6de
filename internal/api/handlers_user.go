package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/api/validate"
	"github.com/scamshield/scamshield/internal/model"
	"github.com/scamshield/scamshield/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// CreateUser handles POST /api/v1/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email       string                `json:"email"`
		Preferences model.UserPreferences `json:"preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteCode(w, model.CodeValidation, "invalid json body")
		return
	}
	if err := validate.Email(in.Email); err != nil {
		respond.WriteCode(w, model.CodeValidation, err.Error())
		return
	}
	if in.Preferences.Region != "" {
		if err := validate.Region(in.Preferences.Region); err != nil {
			respond.WriteCode(w, model.CodeValidation, err.Error())
			return
		}
	}

	out, err := h.svc.CreateUser(r.Context(), &model.User{Email: in.Email, Preferences: in.Preferences})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusCreated, out)
}

// GetUser handles GET /api/v1/users/{email}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if err := validate.Email(email); err != nil {
		respond.WriteCode(w, model.CodeValidation, err.Error())
		return
	}
	u, err := h.svc.GetUser(r.Context(), email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, u)
}
