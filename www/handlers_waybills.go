package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) apiListWaybills(w http.ResponseWriter, r *http.Request) {
	waybills, err := h.db.ListActiveWaybills(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, waybills)
}

// apiIncompleteWaybills lists active waybills that still have
// remaining quantity, for the end-of-shift checklist.
func (h *Handlers) apiIncompleteWaybills(w http.ResponseWriter, r *http.Request) {
	waybills, err := h.db.ListIncompleteWaybills()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, waybills)
}

func (h *Handlers) apiWaybillDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.db.WaybillDates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, dates)
}

func (h *Handlers) apiWaybillProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.db.GetWaybillProgress()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, progress)
}

// apiWaybillLines returns the lines of one waybill with the scanned
// quantity per part so the UI can show remaining counts.
func (h *Handlers) apiWaybillLines(w http.ResponseWriter, r *http.Request) {
	waybill := chi.URLParam(r, "waybill")
	lines, err := h.db.GetWaybillLines(waybill)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scanned, err := h.db.FetchScans(waybill)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"lines": lines, "scanned": scanned})
}

// apiTerminateWaybill closes out a waybill that will never be fully
// received, removing it from every active view.
func (h *Handlers) apiTerminateWaybill(w http.ResponseWriter, r *http.Request) {
	userID, _, _ := h.sessions.currentUser(r)
	if err := h.db.TerminateWaybill(chi.URLParam(r, "waybill"), userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
