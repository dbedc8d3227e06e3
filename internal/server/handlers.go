package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/ingest"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handler struct {
	opt Options
}

type errorResponse struct {
	Error string `json:"error"`
}

// upload is one parsed request: the table plus the form fields that shape the run.
type upload struct {
	name  string
	table *analysis.Table
	form  map[string][]string
}

// requestError carries the HTTP status an upload problem maps to.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// readUpload enforces the size limit and parses the "file" part into a table.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opt.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opt.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("missing form file 'file'")
	}
	defer file.Close()

	opt := h.opt.Ingest
	if s := r.FormValue("sheet_name"); s != "" {
		opt.SheetName = s
	}
	if s := r.FormValue("sheet_index"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, badRequest("invalid sheet_index: %s", s)
		}
		opt.SheetIndex = n
	}
	t, err := ingest.Read(hdr.Filename, file, opt)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupported) {
			return nil, &requestError{status: http.StatusUnsupportedMediaType, msg: err.Error()}
		}
		return nil, badRequest("%v", err)
	}
	return &upload{name: hdr.Filename, table: t, form: r.MultipartForm.Value}, nil
}

func (u *upload) value(key string) string {
	if vs := u.form[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// mapping resolves the request's mapping: fixed headers, or the dynamic
// mapping built from defaults, guessed headers and per-role form fields.
func (h *handler) mapping(u *upload) (m analysis.ColumnMapping, fixed bool, err error) {
	fixed = h.opt.Fixed
	switch strings.ToLower(u.value("mode")) {
	case "":
	case "fixed":
		fixed = true
	case "dynamic":
		fixed = false
	default:
		return nil, false, badRequest("invalid mode: %s (use fixed or dynamic)", u.value("mode"))
	}
	if fixed {
		return analysis.FixedMapping(), true, nil
	}
	m = analysis.GuessMapping(u.table.Columns)
	for role, col := range h.opt.Mapping {
		if col == "" {
			delete(m, role)
			continue
		}
		m[role] = col
	}
	for _, role := range analysis.Roles() {
		vs, ok := u.form[string(role)]
		if !ok || len(vs) == 0 {
			continue
		}
		switch col := strings.TrimSpace(vs[0]); strings.ToLower(col) {
		case "", "-", "none":
			delete(m, role)
		default:
			m[role] = col
		}
	}
	return m, false, nil
}

func (h *handler) analyze(u *upload) (*analysis.Result, error) {
	m, fixed, err := h.mapping(u)
	if err != nil {
		return nil, err
	}
	opt := h.opt.Analysis
	opt.DescribeAll = opt.DescribeAll && !fixed
	if s := u.value("top_n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, badRequest("invalid top_n: %s", s)
		}
		opt.TopN = n
	}
	res := analysis.Analyze(u.table, m, opt)
	for _, issue := range res.Issues {
		logging.Logger().Debug("schema issue", "file", u.name, "issue", issue)
	}
	return res, nil
}

// Columns reports the uploaded headers, their inferred kinds and the guessed mapping.
func (h *handler) Columns(w http.ResponseWriter, r *http.Request) {
	u, err := h.readUpload(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	type column struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	cols := make([]column, 0, len(u.table.Columns))
	for _, c := range u.table.Columns {
		cols = append(cols, column{Name: c, Type: u.table.ColumnKind(c).String()})
	}
	guess := map[string]string{}
	for role, col := range analysis.GuessMapping(u.table.Columns) {
		guess[string(role)] = col
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":    u.name,
		"rows":    u.table.Len(),
		"columns": cols,
		"mapping": guess,
	})
}

// Analyze runs one analysis and answers in the requested format.
func (h *handler) Analyze(w http.ResponseWriter, r *http.Request) {
	u, err := h.readUpload(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	res, err := h.analyze(u)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	switch format := strings.ToLower(u.value("format")); format {
	case "", "json":
		b, err := render.JSON(res, render.Meta{RunID: runID, Source: u.name})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(res.Markdown()))
	case "xlsx":
		b, err := render.WorkbookBytes(res)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
		_, _ = w.Write(b)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid format: %s (use json, markdown or xlsx)", format))
	}
}

// Chart renders one chart as PNG; 404 when its aggregate is unavailable.
func (h *handler) Chart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	known := false
	for _, n := range render.ChartNames() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown chart: "+name)
		return
	}
	u, err := h.readUpload(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	res, err := h.analyze(u)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	png, err := render.Chart(res, name, h.opt.Chart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if png == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "chart unavailable: " + name,
			"notices": res.Notices(),
		})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, re.status, re.msg)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
