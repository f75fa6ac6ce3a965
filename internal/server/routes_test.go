package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-formfill/internal/config"
	"go-formfill/internal/testpdf"
)

func setupTestServer(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.TemplateDir = filepath.Join(dir, "templates")
	cfg.SchemaDir = filepath.Join(dir, "schemas")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.MaxUploadSize = 256 * 1024
	cfg.MaxDataSize = 64 * 1024
	cfg.DownloadGrace = 10 * time.Millisecond

	s, err := Build(cfg)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}
	srv := httptest.NewServer(s.RegisterRoutes())
	t.Cleanup(srv.Close)
	return srv, cfg
}

func multipartUpload(t *testing.T, url, field, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile(field, filename)
	_, _ = part.Write(data)
	writer.Close()

	req, _ := http.NewRequest("POST", url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to upload: %v", err)
	}
	return resp
}

func uploadTemplate(t *testing.T, serverURL string) string {
	t.Helper()
	resp := multipartUpload(t, serverURL+"/api/templates/", "pdf", "form.pdf", testpdf.Document("Name: ______"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, body)
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	id, _ := result["id"].(string)
	if id == "" {
		t.Fatal("Expected template id in response")
	}
	return id
}

func saveTestFields(t *testing.T, serverURL, templateID string) {
	t.Helper()
	body := `{"fields":[
		{"name":"Name","type":"text","page":1,"x":72,"y":650,"width":160,"height":18},
		{"name":"Paid","type":"checkbox","page":1,"x":100,"y":500,"width":14,"height":14}
	]}`
	resp, err := http.Post(serverURL+"/api/templates/"+templateID+"/fields", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to save fields: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
}

func TestUploadTemplate(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("valid PDF", func(t *testing.T) {
		uploadTemplate(t, server.URL)
	})

	t.Run("not a PDF body", func(t *testing.T) {
		resp := multipartUpload(t, server.URL+"/api/templates/", "pdf", "fake.pdf", []byte("plain text"))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		resp := multipartUpload(t, server.URL+"/api/templates/", "pdf", "doc.txt", testpdf.Document("x"))
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestListTemplates(t *testing.T) {
	server, _ := setupTestServer(t)
	uploadTemplate(t, server.URL)

	resp, err := http.Get(server.URL + "/api/templates/")
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 template, got %d", len(list))
	}
}

func TestSaveAndGetFields(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	resp, err := http.Get(server.URL + "/api/templates/" + templateID + "/fields")
	if err != nil {
		t.Fatalf("Failed to get fields: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	fieldList, _ := doc["fields"].([]any)
	if len(fieldList) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(fieldList))
	}
}

func TestSaveFieldsValidation(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)

	t.Run("unknown type", func(t *testing.T) {
		body := `{"fields":[{"name":"X","type":"hologram","page":1,"x":0,"y":0,"width":10,"height":10}]}`
		resp, err := http.Post(server.URL+"/api/templates/"+templateID+"/fields", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("bad page", func(t *testing.T) {
		body := `{"fields":[{"name":"X","type":"text","page":0,"x":0,"y":0,"width":10,"height":10}]}`
		resp, err := http.Post(server.URL+"/api/templates/"+templateID+"/fields", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		body := `{"fields":[]}`
		resp, err := http.Post(server.URL+"/api/templates/ghost/fields", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestGetFieldsMissing(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)

	resp, err := http.Get(server.URL + "/api/templates/" + templateID + "/fields")
	if err != nil {
		t.Fatalf("Failed to get fields: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestFillSingle(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	body := `{"values":{"Name":"Alice","Paid":true}}`
	resp, err := http.Post(server.URL+"/api/templates/"+templateID+"/fill", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to fill: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, raw)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("Expected application/pdf, got %s", ct)
	}
	out, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("Expected a PDF document in response")
	}
}

func TestFillSingleCorruptSchema(t *testing.T) {
	server, cfg := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	// A schema document that no longer parses is a server-side fault, not a
	// missing schema.
	schemaPath := filepath.Join(cfg.SchemaDir, templateID+".json")
	if err := os.WriteFile(schemaPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to corrupt schema file: %v", err)
	}

	body := `{"values":{"Name":"Alice"}}`
	resp, err := http.Post(server.URL+"/api/templates/"+templateID+"/fill", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to fill: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestOversizedJSONBodyRejected(t *testing.T) {
	server, cfg := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	padding := strings.Repeat("x", int(cfg.MaxUploadSize)+1)

	t.Run("fill", func(t *testing.T) {
		body := `{"values":{"Name":"` + padding + `"}}`
		resp, err := http.Post(server.URL+"/api/templates/"+templateID+"/fill", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to post: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("generate", func(t *testing.T) {
		body := `{"records":[{"Name":"` + padding + `"}],"mapping":{"Name":"Name"}}`
		resp, err := http.Post(server.URL+"/api/bulk/"+templateID+"/generate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to post: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestBulkParse(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	csv := "Name,Paid\nAlice,yes\nBob,no\n"
	resp := multipartUpload(t, server.URL+"/api/bulk/"+templateID+"/parse", "data", "data.csv", []byte(csv))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, raw)
	}
	var result struct {
		Headers []string          `json:"headers"`
		Records []map[string]any  `json:"records"`
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Records))
	}
	if result.Mapping["Name"] != "Name" || result.Mapping["Paid"] != "Paid" {
		t.Errorf("Expected identity mapping for matching headers, got %v", result.Mapping)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/bulk/jobs/nope")
	if err != nil {
		t.Fatalf("Failed to get job status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestBulkGenerateFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)
	saveTestFields(t, server.URL, templateID)

	// Start the job
	body := `{"records":[{"Name":"Alice"},{"Name":"Bob"}],"mapping":{"Name":"Name"},"merge":false,"filenameField":"Name"}`
	resp, err := http.Post(server.URL+"/api/bulk/"+templateID+"/generate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to start job: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, raw)
	}
	var start map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&start)
	jobID := start["jobId"]
	if jobID == "" {
		t.Fatal("Expected jobId in response")
	}

	// Poll until the job finishes
	var job map[string]any
	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("Job %s still processing after 10s", jobID)
		}
		resp2, err := http.Get(server.URL + "/api/bulk/jobs/" + jobID)
		if err != nil {
			t.Fatalf("Failed to poll job: %v", err)
		}
		_ = json.NewDecoder(resp2.Body).Decode(&job)
		resp2.Body.Close()
		if job["status"] != "processing" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if job["status"] != "completed" {
		t.Fatalf("Expected completed job, got %v (%v)", job["status"], job["error_message"])
	}
	if job["output_type"] != "zip" {
		t.Errorf("Expected zip output, got %v", job["output_type"])
	}

	// Download the artifact
	resp3, err := http.Get(server.URL + "/api/bulk/jobs/" + jobID + "/download")
	if err != nil {
		t.Fatalf("Failed to download: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp3.StatusCode)
	}
	if ct := resp3.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Expected application/zip, got %s", ct)
	}
}

func TestBulkGenerateValidation(t *testing.T) {
	server, _ := setupTestServer(t)
	templateID := uploadTemplate(t, server.URL)

	t.Run("no records", func(t *testing.T) {
		body := `{"records":[],"mapping":{"Name":"Name"}}`
		resp, err := http.Post(server.URL+"/api/bulk/"+templateID+"/generate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("no mapping", func(t *testing.T) {
		body := `{"records":[{"Name":"Alice"}],"mapping":{}}`
		resp, err := http.Post(server.URL+"/api/bulk/"+templateID+"/generate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		body := `{"records":[{"Name":"Alice"}],"mapping":{"Name":"Name"}}`
		resp, err := http.Post(server.URL+"/api/bulk/ghost/generate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
	})
}
