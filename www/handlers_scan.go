package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/OhmBoyz/receiving-shipping-tracker/allocation"
	"github.com/OhmBoyz/receiving-shipping-tracker/receiving"
)

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.db.GetUser(req.Username)
	if err != nil || !checkPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.sessions.setUser(w, r, user.ID, user.Username, user.Role)
	writeJSON(w, user)
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiMe(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := h.sessions.currentUser(r)
	user, err := h.db.GetUserByID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, user)
}

// apiStartSession opens (or resumes) the operator's scan session and
// points it at a waybill.
func (h *Handlers) apiStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaybillNumber string `json:"waybill_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.WaybillNumber == "" {
		writeError(w, http.StatusBadRequest, "waybill_number is required")
		return
	}
	terminated, err := h.db.IsWaybillTerminated(req.WaybillNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if terminated {
		writeError(w, http.StatusConflict, "waybill is terminated")
		return
	}

	userID, _, _ := h.sessions.currentUser(r)
	session, err := h.db.GetOrCreateSession(userID, uuid.NewString())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.db.UpdateSessionWaybill(session.ID, req.WaybillNumber); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	session.WaybillNumber = req.WaybillNumber
	writeJSON(w, session)
}

func (h *Handlers) apiFinishSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseID(r, "sessionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	if err := h.processor.FinishSession(sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "unknown session")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// apiScan runs one scan through the allocation protocol. The three
// rejection classes map to distinct statuses so the operator UI can
// prompt the right correction.
func (h *Handlers) apiScan(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseID(r, "sessionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	var req struct {
		RawCode string `json:"raw_code"`
		Qty     int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.db.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if session.WaybillNumber == "" {
		writeError(w, http.StatusConflict, "session has no waybill")
		return
	}

	result, err := h.processor.ProcessScan(sessionID, session.WaybillNumber, req.RawCode, req.Qty)
	switch {
	case errors.Is(err, allocation.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be positive")
	case errors.Is(err, receiving.ErrUnknownPart):
		writeError(w, http.StatusNotFound, "part not on this waybill and no open back order")
	case errors.Is(err, allocation.ErrExceedsExpected):
		writeError(w, http.StatusConflict, "quantity exceeds expected")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, result)
	}
}
