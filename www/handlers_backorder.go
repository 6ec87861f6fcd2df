package www

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
)

func (h *Handlers) apiUrgentJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.boSvc.UrgentJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, jobs)
}

func (h *Handlers) apiInProgressJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.boSvc.InProgressJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, jobs)
}

func (h *Handlers) apiJobItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.boSvc.PicklistItems(chi.URLParam(r, "goNumber"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, items)
}

func (h *Handlers) apiJobOpenLines(w http.ResponseWriter, r *http.Request) {
	items, err := h.boSvc.OpenLines(chi.URLParam(r, "goNumber"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, items)
}

func (h *Handlers) apiJobStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.boSvc.StatusSummary(chi.URLParam(r, "goNumber"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, summary)
}

// apiGeneratePicklist renders the job's picklist as HTML and moves its
// waiting lines to IN_PROGRESS.
func (h *Handlers) apiGeneratePicklist(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := h.picklists.Generate(w, chi.URLParam(r, "goNumber")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
	}
}

func (h *Handlers) apiBatchFulfill(w http.ResponseWriter, r *http.Request) {
	var updates []backorder.FulfillmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	completed, err := h.boSvc.BatchFulfill(updates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"completed": completed})
}

func (h *Handlers) apiMarkPicking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemIDs []int64 `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.boSvc.MarkPicking(req.ItemIDs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
