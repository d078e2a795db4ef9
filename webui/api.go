package webui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"smartsummarizer/core"
	"smartsummarizer/db"
	"smartsummarizer/logging"
	"smartsummarizer/metrics"
	"smartsummarizer/pdfprocessor"
	"smartsummarizer/pipeline"
	"smartsummarizer/summarizer"

	"go.uber.org/zap"
)

const (
	maxChunkPreviews   = 20
	chunkPreviewLength = 160
	defaultHistory     = 20
	maxHistory         = 100
	recentRuns         = 10
)

// SummaryService is the part of pipeline.Service the page needs.
type SummaryService interface {
	CheckCredential(apiKey string) error
	Summarize(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
	Plan(req pipeline.Request) (*summarizer.Plan, error)
}

// HistoryReader lists stored summaries.
type HistoryReader interface {
	ListSummaries(ctx context.Context, limit int) ([]db.SummaryRecord, error)
	GetSummary(ctx context.Context, id string) (db.SummaryRecord, error)
}

// Tracker registers in-flight summarizations with the shutdown manager.
type Tracker interface {
	Track() (done func(), ok bool)
}

// PageInfo is what the page shows in its sidebar.
type PageInfo struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	HasDefaultKey bool   `json:"has_default_key"`
	ChunkSize     int    `json:"chunk_size"`
	ChunkOverlap  int    `json:"chunk_overlap"`
	WordThreshold int    `json:"word_threshold"`
	MaxUpload     int64  `json:"max_upload_bytes"`
	Version       string `json:"version"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// SummarizeResponse is returned by POST /api/summarize.
type SummarizeResponse struct {
	*pipeline.Response
	Duration string `json:"duration"`
}

// PlanResponse is returned by POST /api/plan.
type PlanResponse struct {
	Strategy     summarizer.Strategy `json:"strategy"`
	Forced       bool                `json:"forced"`
	Words        int                 `json:"words"`
	Chars        int                 `json:"chars"`
	Chunks       int                 `json:"chunks"`
	Threshold    int                 `json:"word_threshold"`
	ChunkSize    int                 `json:"chunk_size"`
	ChunkOverlap int                 `json:"chunk_overlap"`
	Previews     []string            `json:"previews"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Enabled bool               `json:"enabled"`
	Items   []db.SummaryRecord `json:"items"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Enabled bool                  `json:"enabled"`
	System  *metrics.SystemStatus `json:"system,omitempty"`
	Stats   *metrics.Stats        `json:"stats,omitempty"`
	Recent  []metrics.Run         `json:"recent"`
}

// summarizeInput is the decoded request, from JSON or a multipart form.
type summarizeInput struct {
	Text     string `json:"text"`
	APIKey   string `json:"api_key"`
	Strategy string `json:"strategy"`

	pdf        []byte
	sourceName string
}

// API implements the JSON endpoints.
type API struct {
	service   SummaryService
	history   HistoryReader
	stats     metrics.Reader
	tracker   Tracker
	extractor *pdfprocessor.Extractor
	info      PageInfo
	maxUpload int64
	logger    *logging.Logger
}

// RegisterRoutes mounts the API on mux. summarizeMW wraps the summarize
// endpoint (rate limiting).
func (a *API) RegisterRoutes(mux *http.ServeMux, summarizeMW func(http.Handler) http.Handler) {
	mux.Handle("POST /api/summarize", summarizeMW(http.HandlerFunc(a.handleSummarize)))
	mux.HandleFunc("POST /api/plan", a.handlePlan)
	mux.HandleFunc("GET /api/config", a.handleConfig)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("GET /api/history", a.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", a.handleHistoryItem)
}

func (a *API) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if a.tracker != nil {
		done, ok := a.tracker.Track()
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Server is shutting down")
			return
		}
		defer done()
	}

	in, err := a.decodeInput(w, r)
	if err != nil {
		a.writeInputError(w, err)
		return
	}

	// The credential is checked before the PDF is extracted.
	if err := a.service.CheckCredential(in.APIKey); err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	req, err := a.buildRequest(in)
	if err != nil {
		a.writeInputError(w, err)
		return
	}

	resp, err := a.service.Summarize(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Response: resp, Duration: FormatDuration(resp.Duration)})
}

func (a *API) handlePlan(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeInput(w, r)
	if err != nil {
		a.writeInputError(w, err)
		return
	}
	req, err := a.buildRequest(in)
	if err != nil {
		a.writeInputError(w, err)
		return
	}

	plan, err := a.service.Plan(req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	previews := make([]string, 0, min(plan.Chunks(), maxChunkPreviews))
	for i, doc := range plan.Documents {
		if i == maxChunkPreviews {
			break
		}
		previews = append(previews, summarizer.TruncateWithEllipsis(doc.PageContent, chunkPreviewLength))
	}
	writeJSON(w, http.StatusOK, PlanResponse{
		Strategy:     plan.Strategy,
		Forced:       plan.Forced,
		Words:        plan.Words,
		Chars:        plan.Chars,
		Chunks:       plan.Chunks(),
		Threshold:    a.info.WordThreshold,
		ChunkSize:    a.info.ChunkSize,
		ChunkOverlap: a.info.ChunkOverlap,
		Previews:     previews,
	})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.info)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if a.stats == nil {
		writeJSON(w, http.StatusOK, StatsResponse{Recent: []metrics.Run{}})
		return
	}
	system := a.stats.SystemStatus()
	stats := a.stats.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Enabled: true,
		System:  &system,
		Stats:   &stats,
		Recent:  a.stats.Recent(recentRuns),
	})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Items: []db.SummaryRecord{}})
		return
	}

	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	items, err := a.history.ListSummaries(r.Context(), limit)
	if err != nil {
		a.logger.Error("Failed to list history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Enabled: true, Items: items})
}

func (a *API) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "HISTORY_DISABLED", "History is disabled")
		return
	}
	rec, err := a.history.GetSummary(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Summary not found")
		return
	}
	if err != nil {
		a.logger.Error("Failed to load summary", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// inputError is a client mistake in the request body.
type inputError struct {
	status  int
	code    string
	message string
}

func (e *inputError) Error() string { return e.message }

func badInput(code, message string) error {
	return &inputError{status: http.StatusBadRequest, code: code, message: message}
}

// decodeInput reads a JSON body or a multipart form with an optional "file".
func (a *API) decodeInput(w http.ResponseWriter, r *http.Request) (*summarizeInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	in := &summarizeInput{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(a.maxUpload); err != nil {
			return nil, tooLargeOr(err, badInput("INVALID_FORM", "Could not read the form"))
		}
		defer r.MultipartForm.RemoveAll()

		in.Text = r.FormValue("text")
		in.APIKey = r.FormValue("api_key")
		in.Strategy = r.FormValue("strategy")

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, tooLargeOr(err, badInput("INVALID_FORM", "Could not read the uploaded file"))
			}
			in.pdf = data
			in.sourceName = header.Filename
		} else if !errors.Is(err, http.ErrMissingFile) {
			return nil, badInput("INVALID_FORM", "Could not read the uploaded file")
		}

	case "application/json", "":
		if err := json.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
			return nil, tooLargeOr(err, badInput("INVALID_JSON", "Request body must be JSON"))
		}

	default:
		return nil, &inputError{
			status:  http.StatusUnsupportedMediaType,
			code:    "UNSUPPORTED_MEDIA_TYPE",
			message: "Send JSON or multipart/form-data",
		}
	}
	return in, nil
}

func tooLargeOr(err error, fallback error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &inputError{status: http.StatusRequestEntityTooLarge, code: "TOO_LARGE", message: "Upload is too large"}
	}
	return fallback
}

// buildRequest extracts PDF text when a file was uploaded.
func (a *API) buildRequest(in *summarizeInput) (pipeline.Request, error) {
	req := pipeline.Request{
		Text:   in.Text,
		Source: pipeline.SourceText,
		APIKey: in.APIKey,
	}

	if s := strings.TrimSpace(in.Strategy); s != "" && s != "auto" {
		strategy, err := summarizer.ParseStrategy(s)
		if err != nil {
			return req, badInput("INVALID_STRATEGY", err.Error())
		}
		req.Strategy = strategy
	}

	if in.pdf != nil {
		if len(in.pdf) > 0 && !pdfprocessor.IsPDF(in.pdf[:min(len(in.pdf), pdfprocessor.SniffLength)]) {
			return req, &inputError{status: http.StatusUnprocessableEntity, code: "NOT_PDF", message: "The uploaded file is not a PDF"}
		}
		result, err := a.extractor.ExtractBytes(in.pdf)
		switch {
		case errors.Is(err, pdfprocessor.ErrNoPDFContent), errors.Is(err, pdfprocessor.ErrEmptyData):
			// Nothing to summarize; treated like empty text.
			req.Text = ""
		case err != nil:
			return req, &inputError{status: http.StatusUnprocessableEntity, code: "INVALID_PDF", message: "Could not read the PDF"}
		default:
			req.Text = result.Text
		}
		req.Source = pipeline.SourcePDF
		req.SourceName = in.sourceName
	}
	return req, nil
}

func (a *API) writeInputError(w http.ResponseWriter, err error) {
	var in *inputError
	if errors.As(err, &in) {
		writeError(w, in.status, in.code, in.message)
		return
	}
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
}

// writeServiceError maps pipeline errors onto HTTP: empty input is a silent
// 204, configuration problems are 400, LLM failures are 502.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if cfgErr, ok := core.IsConfigError(err); ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Code:    cfgErr.Code,
			Message: cfgErr.Message,
			Action:  cfgErr.Action,
		})
		return
	}

	switch {
	case errors.Is(err, summarizer.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, summarizer.ErrInvalidChunkConfig), errors.Is(err, summarizer.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case r.Context().Err() != nil:
		// Client went away; nobody is listening for a body.
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		writeError(w, http.StatusBadGateway, "LLM_ERROR", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}
