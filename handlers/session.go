// tavle/handlers/session.go
package handlers

import (
	"encoding/json"
	"net/http"

	"tavle/config"
	"tavle/utils"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentialsRequest, bool) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, false
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, false
	}
	return creds, true
}

// HandleLogin verifies credentials and issues the signed session cookie.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleLogin")

	creds, ok := decodeCredentials(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "missing_credentials", "error": "username and password are required",
		}, app)
		return
	}

	user, err := app.DB().RetrieveUserByName(creds.Username)
	if err != nil || !utils.CheckPassword(user.PasswordHash, creds.Password) {
		logger.Warn("Login failed", "user_name", creds.Username)
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"code": "invalid_credentials", "error": "invalid username or password",
		}, app)
		return
	}

	setSessionCookie(w, r, creds.Username, creds.Password)
	logger.Info("Login", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]int64{"user_id": user.ID}, app)
}

// HandleLogout clears the session cookie.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	clearSessionCookie(w, r)
	if user, ok := currentUser(r); ok {
		app.Logger().Info("Logout", "user_id", user.ID)
		respondJSON(w, http.StatusOK, map[string]int64{"user_id": user.ID}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user_id": nil}, app)
}

// HandleRegister creates a user and logs the new account in. A duplicate
// user_name reports a conflict and leaves the existing record untouched.
func HandleRegister(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleRegister")

	creds, ok := decodeCredentials(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "missing_credentials", "error": "username and password are required",
		}, app)
		return
	}
	if len(creds.Username) > config.MaxUserNameLen {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "user_name_too_long", "error": "username exceeds the maximum length",
		}, app)
		return
	}

	passwordHash, err := utils.HashPassword(creds.Password, config.PasswordHashCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"code": "hash_failed", "error": "could not process password",
		}, app)
		return
	}

	userID, err := app.DB().InsertUser(creds.Username, passwordHash, 0)
	if err != nil {
		respondError(w, err, app)
		return
	}

	setSessionCookie(w, r, creds.Username, creds.Password)
	logger.Info("User registered", "user_id", userID)
	respondJSON(w, http.StatusCreated, map[string]int64{"user_id": userID}, app)
}

// HandleGetUser retrieves a single user's public record.
func HandleGetUser(w http.ResponseWriter, r *http.Request, app App) {
	userID, ok := pathID(r, "userID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "invalid_user_id", "error": "invalid user id",
		}, app)
		return
	}
	user, err := app.DB().RetrieveUserByID(userID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, user, app)
}
