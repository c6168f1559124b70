package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// maxUploadBytes bounds an uploaded spreadsheet
const maxUploadBytes = 32 << 20

// Handler serves the gateway endpoints over a Store
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

type rowWire struct {
	DataID  models.ID         `json:"data_id"`
	Content map[string]string `json:"content"`
}

type headerWire struct {
	Properties models.Properties `json:"properties"`
}

type tableDataWire struct {
	Header headerWire `json:"header"`
	Data   []rowWire  `json:"data"`
}

func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.store.ListRepositories(r.Context())
	if err != nil {
		h.storeError(w, r, "list repositories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos})
}

func (h *Handler) createRepository(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	repo, err := h.store.CreateRepository(r.Context(), name)
	if err != nil {
		h.storeError(w, r, "create repository", err)
		return
	}
	h.logger.Info("repository created", "repo_id", repo.ID, "name", repo.Name)
	writeJSON(w, http.StatusOK, repo)
}

func (h *Handler) deleteRepository(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	if err := h.store.DeleteRepository(r.Context(), id); err != nil {
		h.storeError(w, r, "delete repository", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RepoID    models.ID `json:"repo_id"`
		TableName string    `json:"table_name"`
		Columns   string    `json:"columns"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	name := strings.TrimSpace(req.TableName)
	columns, err := parseColumns(req.Columns)
	if name == "" || err != nil {
		msg := "table_name and columns are required"
		if err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	table, err := h.store.CreateTable(r.Context(), req.RepoID, name, columns)
	if errors.Is(err, ErrTableExists) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Table already exists"})
		return
	}
	if err != nil {
		h.storeError(w, r, "create table", err)
		return
	}
	h.logger.Info("table created", "repo_id", req.RepoID, "table_id", table.ID, "columns", len(columns))
	writeJSON(w, http.StatusOK, map[string]any{"created": true, "table_id": table.ID})
}

// parseColumns splits the comma-joined column list
func parseColumns(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("columns are required")
	}
	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		c := strings.TrimSpace(p)
		switch {
		case c == "":
			return nil, fmt.Errorf("column names cannot be empty")
		case c == "data_id":
			return nil, fmt.Errorf("data_id is a reserved column")
		case slices.Contains(columns, c):
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		columns = append(columns, c)
	}
	return columns, nil
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	if err := h.store.DeleteTable(r.Context(), id); err != nil {
		h.storeError(w, r, "delete table", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) tableData(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	columns, err := h.store.TableColumns(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "fetch table columns", err)
		return
	}
	rows, err := h.store.ListRows(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "fetch rows", err)
		return
	}

	resp := tableDataWire{
		Header: headerWire{Properties: models.NewProperties(append([]string{"data_id"}, columns...))},
		Data:   make([]rowWire, len(rows)),
	}
	for i, row := range rows {
		resp.Data[i] = rowWire{DataID: row.DataID, Content: row.Content}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createRow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID models.ID         `json:"table_id"`
		Data    map[string]string `json:"data"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	columns, err := h.store.TableColumns(r.Context(), req.TableID)
	if err != nil {
		h.storeError(w, r, "create row", err)
		return
	}
	cells := MapRows(columns, keysOf(req.Data), [][]string{valuesOf(req.Data)})
	if len(cells) == 0 {
		writeError(w, http.StatusBadRequest, "row has no values")
		return
	}

	ids, err := h.store.InsertRows(r.Context(), req.TableID, cells)
	if err != nil {
		h.storeError(w, r, "create row", err)
		return
	}
	writeJSON(w, http.StatusOK, rowWire{DataID: ids[0], Content: cells[0]})
}

func (h *Handler) updateRow(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	var req struct {
		Data map[string]string `json:"data"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	delete(req.Data, "data_id")
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "data is required")
		return
	}

	if err := h.store.UpdateRow(r.Context(), id, req.Data); err != nil {
		h.storeError(w, r, "update row", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	if err := h.store.DeleteRow(r.Context(), id); err != nil {
		h.storeError(w, r, "delete row", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}

	tableID := models.ID(strings.TrimSpace(r.FormValue("table_id")))
	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	columns, err := h.store.TableColumns(r.Context(), tableID)
	if err != nil {
		h.storeError(w, r, "upload file", err)
		return
	}

	header, records, err := ReadSheet(fh.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := MapRows(columns, header, records)
	if len(rows) == 0 {
		writeJSON(w, http.StatusOK, map[string]int{"inserted": 0})
		return
	}

	if _, err := h.store.InsertRows(r.Context(), tableID, rows); err != nil {
		h.storeError(w, r, "upload file", err)
		return
	}
	h.logger.Info("file imported", "table_id", tableID, "file", fh.Filename, "rows", len(rows))
	writeJSON(w, http.StatusOK, map[string]int{"inserted": len(rows)})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	columns, err := h.store.TableColumns(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "download table", err)
		return
	}
	rows, err := h.store.ListRows(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "download table", err)
		return
	}

	blob, err := WriteXLSX(columns, rows)
	if err != nil {
		h.storeError(w, r, "download table", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func valuesOf(m map[string]string) []string {
	keys := keysOf(m)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return values
}
