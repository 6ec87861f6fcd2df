package www

import (
	"io"
	"net/http"
	"strconv"

	"github.com/OhmBoyz/receiving-shipping-tracker/importer"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

const maxImportSize = 32 << 20

// formFile pulls one named upload out of a multipart request.
func formFile(w http.ResponseWriter, r *http.Request, name string) (io.ReadCloser, bool) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	f, _, err := r.FormFile(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing upload "+name)
		return nil, false
	}
	return f, true
}

func (h *Handlers) apiImportWaybill(w http.ResponseWriter, r *http.Request) {
	f, ok := formFile(w, r, "waybill")
	if !ok {
		return
	}
	defer f.Close()
	n, err := importer.ImportWaybill(h.db, f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]int{"imported": n})
}

// apiImportBackOrders takes both extracts in one request so the
// reconciliation always sees a matched pair.
func (h *Handlers) apiImportBackOrders(w http.ResponseWriter, r *http.Request) {
	backlog, ok := formFile(w, r, "backlog")
	if !ok {
		return
	}
	defer backlog.Close()
	redcon, _, err := r.FormFile("redcon")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing upload redcon")
		return
	}
	defer redcon.Close()

	res, err := importer.SyncBackOrders(h.boSvc, backlog, redcon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, res)
}

func (h *Handlers) apiImportPartIdentifiers(w http.ResponseWriter, r *http.Request) {
	f, ok := formFile(w, r, "identifiers")
	if !ok {
		return
	}
	defer f.Close()
	n, err := importer.ImportPartIdentifiers(h.db, f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]int{"imported": n})
}

func (h *Handlers) apiScanSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SummaryFilter{
		Date:    q.Get("date"),
		Waybill: q.Get("waybill"),
	}
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = id
	}
	rows, err := h.db.QueryScanSummary(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, rows)
}
