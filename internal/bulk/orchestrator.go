package bulk

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go-formfill/internal/aggregate"
	"go-formfill/internal/fields"
	"go-formfill/internal/render"
	"go-formfill/internal/utils"
)

// SchemaResolver looks up the saved field schema for a template.
type SchemaResolver interface {
	Resolve(templateID, userID string) ([]fields.Descriptor, error)
}

// Options control one bulk run.
type Options struct {
	// Merge combines all rendered documents into a single PDF; otherwise
	// the outputs are bundled into a zip archive.
	Merge bool
	// FilenameField names the data column whose value becomes each output
	// file's basename. Empty means positional fallback names.
	FilenameField string
	// UserID scopes schema resolution.
	UserID string
}

// Orchestrator drives bulk generation jobs as detached background tasks.
type Orchestrator struct {
	jobs      Store
	schemas   SchemaResolver
	renderer  *render.Renderer
	outputDir string
}

func NewOrchestrator(jobs Store, schemas SchemaResolver, renderer *render.Renderer, outputDir string) *Orchestrator {
	return &Orchestrator{jobs: jobs, schemas: schemas, renderer: renderer, outputDir: outputDir}
}

// Start registers a new job and launches its background run. It never
// blocks on processing; callers poll the job store for progress. The
// returned id identifies the job.
func (o *Orchestrator) Start(templateID string, source []byte, records []map[string]any, mapping map[string]string, opts Options) string {
	jobID := utils.GenerateUUID()
	o.jobs.Create(&Job{
		ID:        jobID,
		Status:    StatusProcessing,
		Total:     len(records),
		Errors:    []RowError{},
		CreatedAt: time.Now(),
	})

	go func() {
		defer func() {
			// A panic in the run must land in the job record, not kill
			// the process as an unobserved fault.
			if rec := recover(); rec != nil {
				log.Printf("bulk: job %s panicked: %v", jobID, rec)
				o.fail(jobID, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		o.run(jobID, templateID, source, records, mapping, opts)
	}()

	return jobID
}

func (o *Orchestrator) run(jobID, templateID string, source []byte, records []map[string]any, mapping map[string]string, opts Options) {
	schema, err := o.schemas.Resolve(templateID, opts.UserID)
	if err != nil {
		o.fail(jobID, fmt.Sprintf("cannot resolve field schema for template %s: %v", templateID, err))
		return
	}

	workDir := filepath.Join(o.outputDir, "job-"+jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		o.fail(jobID, fmt.Sprintf("cannot create job directory: %v", err))
		return
	}
	defer os.RemoveAll(workDir)

	var (
		entries   []aggregate.Entry
		usedNames = map[string]int{}
	)
	for i, record := range records {
		filled := fields.Apply(schema, record, mapping)
		rendered, err := o.renderer.Render(source, filled, true)
		if err != nil {
			o.jobs.Update(jobID, func(j *Job) {
				j.Errors = append(j.Errors, RowError{Row: i + 1, Message: err.Error()})
				j.Processed++
			})
			continue
		}

		name := outputName(record, opts.FilenameField, i, usedNames)
		path := filepath.Join(workDir, name)
		if err := os.WriteFile(path, rendered, 0o644); err != nil {
			o.jobs.Update(jobID, func(j *Job) {
				j.Errors = append(j.Errors, RowError{Row: i + 1, Message: fmt.Sprintf("cannot write output: %v", err)})
				j.Processed++
			})
			continue
		}
		entries = append(entries, aggregate.Entry{Name: name, Path: path})
		o.jobs.Update(jobID, func(j *Job) { j.Processed++ })
	}

	var (
		outputFile string
		outputType string
	)
	if opts.Merge {
		outputFile = filepath.Join(o.outputDir, "filled_"+jobID+".pdf")
		outputType = OutputPDF
		err = aggregate.MergePDFs(entryPaths(entries), outputFile)
	} else {
		outputFile = filepath.Join(o.outputDir, "filled_"+jobID+".zip")
		outputType = OutputZip
		err = aggregate.Archive(entries, outputFile)
	}
	if err != nil {
		o.fail(jobID, fmt.Sprintf("aggregation failed: %v", err))
		return
	}

	o.jobs.Update(jobID, func(j *Job) {
		j.Status = StatusCompleted
		j.OutputFile = outputFile
		j.OutputType = outputType
	})
}

// fail moves a job to its terminal error state. Status never moves
// backward, so completed jobs are left alone.
func (o *Orchestrator) fail(jobID, message string) {
	o.jobs.Update(jobID, func(j *Job) {
		if j.Status == StatusProcessing {
			j.Status = StatusError
			j.ErrorMessage = message
		}
	})
}

// outputName computes the output filename for one record: a sanitized
// value from the designated filename column, or a positional fallback.
// Duplicate names get a numeric suffix so archive entries stay distinct.
func outputName(record map[string]any, filenameField string, index int, used map[string]int) string {
	base := ""
	if filenameField != "" {
		base = utils.SanitizeBase(fields.StringValue(record[filenameField]))
	}
	if base == "" {
		base = fmt.Sprintf("filled_%d", index+1)
	}
	used[base]++
	if n := used[base]; n > 1 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	return base + ".pdf"
}

func entryPaths(entries []aggregate.Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
