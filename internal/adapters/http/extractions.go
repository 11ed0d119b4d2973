package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/usecase"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/progress"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/report"
)

type extractionRequest struct {
	UserID string   `json:"user_id"`
	DocIDs []string `json:"doc_ids"`
	Format string   `json:"format"`
}

type extractionResponse struct {
	Indicators domain.ExtractionReport   `json:"indicators"`
	ESRS       []domain.DerivedIndicator `json:"esrs"`
}

// decodeExtractionRequest accepts a JSON body or form values. Document ids
// may be repeated (doc_ids=a&doc_ids=b) or comma separated; doc_id is an
// alias.
func decodeExtractionRequest(r *http.Request) (extractionRequest, error) {
	var req extractionRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, domain.WrapError(domain.ErrInvalidInput, "decode extraction request", err)
		}
	} else {
		if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, domain.WrapError(domain.ErrInvalidInput, "parse extraction form", err)
		}
		req.UserID = r.FormValue("user_id")
		req.Format = r.FormValue("format")
		req.DocIDs = append(r.Form["doc_ids"], r.Form["doc_id"]...)
	}
	if req.Format == "" {
		req.Format = r.URL.Query().Get("format")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.DocIDs = splitIDs(req.DocIDs)
	return req, usecase.ValidateExtractionInput(req.UserID, req.DocIDs)
}

func splitIDs(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (rt *Router) extract(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExtractionRequest(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	format, err := report.ParseFormat(req.Format)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	rep := rt.deps.Extractor.Extract(r.Context(), req.UserID, req.DocIDs, nil)
	rt.writeReport(w, r, format, rep)
}

func (rt *Router) writeReport(w http.ResponseWriter, r *http.Request, format report.Format, rep domain.ExtractionReport) {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordExport(serviceName, string(format))
	}
	derived := domain.CalculateESRS(rep)

	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, extractionResponse{Indicators: rep, ESRS: derived})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.WriteHeader(http.StatusOK)

	var err error
	switch format {
	case report.FormatCSV:
		err = report.WriteCSV(w, derived)
	case report.FormatXLSX:
		err = report.WriteXLSX(w, derived)
	}
	if err != nil {
		rt.logger.Error("report_write_failed",
			"request_id", requestIDFromContext(r.Context()),
			"format", string(format),
			"error", err,
		)
	}
}

// streamExtraction runs the pipeline and relays progress messages as
// server-sent events, followed by a result event with the JSON report.
func (rt *Router) streamExtraction(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("user_id"))
	docIDs := splitIDs(append(query["doc_ids"], query["doc_id"]...))
	if err := usecase.ValidateExtractionInput(userID, docIDs); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	ctx := r.Context()
	sink := progress.NewQueue()
	done := make(chan domain.ExtractionReport, 1)
	go func() {
		defer sink.Close()
		done <- rt.deps.Extractor.Extract(ctx, userID, docIDs, sink)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		msg, ok := sink.Next(ctx)
		if !ok {
			break
		}
		if err := writeEvent(w, "progress", msg); err != nil {
			return
		}
		flusher.Flush()
	}
	if ctx.Err() != nil {
		return
	}

	rep := <-done
	payload, err := json.Marshal(extractionResponse{Indicators: rep, ESRS: domain.CalculateESRS(rep)})
	if err != nil {
		rt.logger.Error("stream_encode_failed", "request_id", requestIDFromContext(ctx), "error", err)
		return
	}
	if err := writeEvent(w, "result", string(payload)); err != nil {
		return
	}
	_ = writeEvent(w, "done", "[DONE]")
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func (rt *Router) enqueueJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExtractionRequest(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	job, err := rt.deps.Jobs.Enqueue(r.Context(), req.UserID, req.DocIDs)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/extractions/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// getJob returns the job as JSON, or its ESRS export when format is csv or
// xlsx and the job is done.
func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	job, err := rt.deps.Jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, job)
		return
	}
	if job.Status != domain.JobDone {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s", job.Status))
		return
	}
	rt.writeReport(w, r, format, domain.ExtractionReport{Results: job.Results})
}
