// Package handlers provides HTTP handlers for the form fill API.
//
// This package contains the endpoints for template upload and listing,
// field schema management, field auto-detection, single interactive fill,
// and the bulk generation pipeline (parse, generate, status, download).
//
// Example usage:
//
//	h := handlers.NewAPIHandler(cfg, templateStore, schemaStore, jobStore, orchestrator, renderer)
//	r := chi.NewRouter()
//	r.Post("/api/templates", h.UploadTemplate)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"go-formfill/internal/bulk"
	"go-formfill/internal/config"
	"go-formfill/internal/detect"
	"go-formfill/internal/fields"
	"go-formfill/internal/mapping"
	"go-formfill/internal/render"
	"go-formfill/internal/schema"
	"go-formfill/internal/tabular"
	"go-formfill/internal/templates"
)

type APIHandler struct {
	Config       *config.Config
	Templates    *templates.Store
	Schemas      *schema.Store
	Jobs         bulk.Store
	Orchestrator *bulk.Orchestrator
	Renderer     *render.Renderer
}

func NewAPIHandler(cfg *config.Config, t *templates.Store, s *schema.Store, jobs bulk.Store,
	o *bulk.Orchestrator, r *render.Renderer,
) *APIHandler {
	return &APIHandler{Config: cfg, Templates: t, Schemas: s, Jobs: jobs, Orchestrator: o, Renderer: r}
}

// UploadTemplate godoc
// @Summary      Upload a template PDF
// @Description  Stores a PDF template and returns its id
// @Tags         templates
// @Accept       multipart/form-data
// @Produce      json
// @Param        pdf  formData  file  true  "Template PDF"
// @Success      200  {object}  templates.Template
// @Failure      400  {string}  string  "Bad request"
// @Router       /api/templates [post]
func (h *APIHandler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.Config.MaxUploadSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("pdf")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if filepath.Ext(handler.Filename) != ".pdf" {
		http.Error(w, "Only PDF files are allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		http.Error(w, "Uploaded file is not a valid PDF", http.StatusBadRequest)
		return
	}

	tpl, err := h.Templates.Save(handler.Filename, data)
	if err != nil {
		http.Error(w, "Failed to store template", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// ListTemplates godoc
// @Summary      List templates
// @Description  Returns all stored templates, newest first
// @Tags         templates
// @Produce      json
// @Success      200  {array}  templates.Template
// @Router       /api/templates [get]
func (h *APIHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Templates.List()
	if err != nil {
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// TemplateFile godoc
// @Summary      Download a template PDF
// @Tags         templates
// @Produce      application/pdf
// @Param        templateID  path  string  true  "Template ID"
// @Success      200  {file}    file
// @Failure      404  {string}  string  "Template not found"
// @Router       /api/templates/{templateID}/file [get]
func (h *APIHandler) TemplateFile(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	path, err := h.Templates.Path(templateID)
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// SaveFields godoc
// @Summary      Save a field schema
// @Description  Persists the ordered field list for a template, optionally scoped to a user
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        templateID  path   string  true   "Template ID"
// @Param        userID      query  string  false  "User scope"
// @Param        fields      body   object  true   "{ fields: [FieldDescriptor] }"
// @Success      200  {object}  map[string]bool  "{ success: true }"
// @Failure      400  {string}  string  "Bad request"
// @Router       /api/templates/{templateID}/fields [post]
func (h *APIHandler) SaveFields(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if _, err := h.Templates.Path(templateID); err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	var req struct {
		Fields []fields.Descriptor `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid field data", http.StatusBadRequest)
		return
	}
	for _, f := range req.Fields {
		if !fields.IsValidType(f.Type) {
			http.Error(w, fmt.Sprintf("Unknown field type %q", f.Type), http.StatusBadRequest)
			return
		}
		if f.Page < 1 {
			http.Error(w, fmt.Sprintf("Field %q has invalid page %d", f.Name, f.Page), http.StatusBadRequest)
			return
		}
	}

	if err := h.Schemas.Save(templateID, r.URL.Query().Get("userID"), req.Fields); err != nil {
		http.Error(w, "Failed to save fields", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetFields godoc
// @Summary      Fetch a field schema
// @Description  Returns the saved field schema; user-scoped schemas fall back to the global one
// @Tags         fields
// @Produce      json
// @Param        templateID  path   string  true   "Template ID"
// @Param        userID      query  string  false  "User scope"
// @Success      200  {object}  schema.Saved
// @Failure      404  {string}  string  "No schema saved"
// @Router       /api/templates/{templateID}/fields [get]
func (h *APIHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	doc, err := h.Schemas.Get(templateID, r.URL.Query().Get("userID"))
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			http.Error(w, "No field schema saved for this template", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load fields", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DetectFields godoc
// @Summary      Suggest field placements
// @Description  Scans the template's page text for fill-in patterns and returns suggested fields
// @Tags         fields
// @Produce      json
// @Param        templateID  path  string  true  "Template ID"
// @Success      200  {object}  map[string]interface{}  "{ fields: [FieldDescriptor] }"
// @Failure      404  {string}  string  "Template not found"
// @Router       /api/templates/{templateID}/detect [post]
func (h *APIHandler) DetectFields(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	path, err := h.Templates.Path(templateID)
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	suggested, err := detect.SuggestFields(path)
	if err != nil {
		log.Printf("Field detection failed for %s: %v", templateID, err)
		http.Error(w, "Field detection failed", http.StatusInternalServerError)
		return
	}
	if suggested == nil {
		suggested = []fields.Descriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": suggested})
}

// FillSingle godoc
// @Summary      Fill one document
// @Description  Fills the template's fields with the given values and returns the rendered PDF
// @Tags         fill
// @Accept       json
// @Produce      application/pdf
// @Param        templateID  path  string  true  "Template ID"
// @Param        request     body  object  true  "{ values: {fieldName: value}, flatten: bool }"
// @Success      200  {file}    file
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Template or schema not found"
// @Router       /api/templates/{templateID}/fill [post]
func (h *APIHandler) FillSingle(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")

	// Values may carry base64 signature images, so the data-file cap is too
	// tight here; the upload cap still bounds the body.
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadSize)
	var req struct {
		Values  map[string]any `json:"values"`
		UserID  string         `json:"userId"`
		Flatten *bool          `json:"flatten"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(req.Values) == 0 {
		http.Error(w, "No values supplied", http.StatusBadRequest)
		return
	}

	source, err := h.Templates.Read(templateID)
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	doc, err := h.Schemas.Get(templateID, req.UserID)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			http.Error(w, "No field schema saved for this template", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load fields", http.StatusInternalServerError)
		return
	}

	// Interactive fill addresses fields directly by name.
	identity := make(map[string]string, len(req.Values))
	for name := range req.Values {
		identity[name] = name
	}
	filled := fields.Apply(doc.Fields, req.Values, identity)

	flatten := true
	if req.Flatten != nil {
		flatten = *req.Flatten
	}
	out, err := h.Renderer.Render(source, filled, flatten)
	if out == nil {
		log.Printf("Single fill failed for %s: %v", templateID, err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}
	if err != nil {
		// Partial render: some fields could not be drawn.
		log.Printf("Single fill for %s skipped fields: %v", templateID, err)
	}

	w.Header().Set("Content-Disposition", `attachment; filename="filled.pdf"`)
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(out)
}

// BulkParse godoc
// @Summary      Parse a bulk data file
// @Description  Parses an uploaded CSV or JSON data file and returns records, headers, and an automatic header-to-field mapping
// @Tags         bulk
// @Accept       multipart/form-data
// @Produce      json
// @Param        templateID  path      string  true   "Template ID"
// @Param        userID      query     string  false  "User scope for schema lookup"
// @Param        data        formData  file    true   "CSV or JSON data file"
// @Success      200  {object}  map[string]interface{}  "{ headers, records, mapping }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Template or schema not found"
// @Router       /api/bulk/{templateID}/parse [post]
func (h *APIHandler) BulkParse(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxDataSize)
	if err := r.ParseMultipartForm(h.Config.MaxDataSize); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}
	file, handler, err := r.FormFile("data")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	hint := r.FormValue("format")
	if hint == "" {
		hint = strings.TrimPrefix(filepath.Ext(handler.Filename), ".")
	}
	result, err := tabular.Parse(raw, hint)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(result.Records) == 0 {
		http.Error(w, "Data file contains no records", http.StatusBadRequest)
		return
	}
	if len(result.Records) > h.Config.MaxRows {
		http.Error(w, fmt.Sprintf("Too many rows: %d (limit %d)", len(result.Records), h.Config.MaxRows), http.StatusBadRequest)
		return
	}

	doc, err := h.Schemas.Get(templateID, r.URL.Query().Get("userID"))
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			http.Error(w, "No field schema saved for this template", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load fields", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"headers": result.Headers,
		"records": result.Records,
		"mapping": mapping.AutoMap(result.Headers, doc.Fields),
	})
}

// BulkGenerate godoc
// @Summary      Start a bulk generation job
// @Description  Registers a background job that fills the template once per record and aggregates the outputs
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        templateID  path  string  true  "Template ID"
// @Param        request     body  object  true  "{ records, mapping, merge, filenameField, userId }"
// @Success      200  {object}  map[string]string  "{ jobId: string }"
// @Failure      400  {string}  string  "Bad request"
// @Failure      404  {string}  string  "Template not found"
// @Router       /api/bulk/{templateID}/generate [post]
func (h *APIHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")

	// Records may carry base64 signature images, so the data-file cap is too
	// tight here; the upload cap still bounds the body.
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadSize)
	var req struct {
		Records       []map[string]any  `json:"records"`
		Mapping       map[string]string `json:"mapping"`
		Merge         bool              `json:"merge"`
		FilenameField string            `json:"filenameField"`
		UserID        string            `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, "No records to process", http.StatusBadRequest)
		return
	}
	if len(req.Records) > h.Config.MaxRows {
		http.Error(w, fmt.Sprintf("Too many rows: %d (limit %d)", len(req.Records), h.Config.MaxRows), http.StatusBadRequest)
		return
	}
	if len(req.Mapping) == 0 {
		http.Error(w, "Missing column mapping", http.StatusBadRequest)
		return
	}

	source, err := h.Templates.Read(templateID)
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	jobID := h.Orchestrator.Start(templateID, source, req.Records, req.Mapping, bulk.Options{
		Merge:         req.Merge,
		FilenameField: req.FilenameField,
		UserID:        req.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]string{"jobId": jobID})
}

// JobStatus godoc
// @Summary      Poll job status
// @Description  Returns a read-only snapshot of a bulk job
// @Tags         bulk
// @Produce      json
// @Param        jobID  path  string  true  "Job ID"
// @Success      200  {object}  bulk.Job
// @Failure      404  {string}  string  "Job not found"
// @Router       /api/bulk/jobs/{jobID} [get]
func (h *APIHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := h.Jobs.Get(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// JobDownload godoc
// @Summary      Download the job artifact
// @Description  Serves the merged PDF or zip archive of a completed job; the artifact is deleted after a grace delay
// @Tags         bulk
// @Produce      application/octet-stream
// @Param        jobID  path  string  true  "Job ID"
// @Success      200  {file}    file
// @Failure      404  {string}  string  "Job not found"
// @Failure      409  {string}  string  "Job not finished"
// @Router       /api/bulk/jobs/{jobID}/download [get]
func (h *APIHandler) JobDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := h.Jobs.Get(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.Status != bulk.StatusCompleted {
		http.Error(w, "Job is not finished", http.StatusConflict)
		return
	}
	if _, err := os.Stat(job.OutputFile); os.IsNotExist(err) {
		http.Error(w, "Output file not found", http.StatusNotFound)
		return
	}

	filename := "filled.pdf"
	contentType := "application/pdf"
	if job.OutputType == bulk.OutputZip {
		filename = "filled.zip"
		contentType = "application/zip"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, job.OutputFile)

	// Deleting immediately would break slow clients; give the transfer a
	// grace window before the artifact and the job record go away.
	go func() {
		time.Sleep(h.Config.DownloadGrace)
		os.Remove(job.OutputFile)
		h.Jobs.Delete(jobID)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
