// Package executor implements the document-analysis step executor driven by
// the pipeline runner. Each catalog target maps to one simulated stage of the
// extract / analyze / report workflow.
package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
	model "github.com/tenderworks/pipeline/pkg/pipeline/core/model"
	"github.com/tenderworks/pipeline/pkg/pipeline/engine/runner"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

const moduleName = "DocumentExecutor"

// defaultModel is the full-strength analysis model used unless an attempt
// downgrades to the step's fallback model.
const defaultModel = "large-v2"

// costPerPageCents prices one analyzed page.
const costPerPageCents = 3

// DocumentExecutor executes the document-analysis steps. It derives
// deterministic payloads from the job's subject so runs are reproducible.
type DocumentExecutor struct{}

// NewDocumentExecutor creates a new instance of DocumentExecutor.
func NewDocumentExecutor() *DocumentExecutor {
	return &DocumentExecutor{}
}

// Execute dispatches on the step's target.
func (e *DocumentExecutor) Execute(ctx context.Context, job *model.JobRecord, step catalog.StepDefinition, opts runner.ExecOptions) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debugf("DocumentExecutor: job '%s' target '%s' attempt %d.", job.ID, step.Target, opts.Attempt)

	switch step.Target {
	case "documents.extract":
		return e.extract(job)
	case "documents.ocr":
		return e.ocr(job)
	case "documents.analyze":
		return e.analyze(job, opts)
	case "documents.cost":
		return e.cost(job)
	case "documents.decide":
		return e.decide(job)
	case "documents.report":
		return e.report(job)
	default:
		return nil, exception.NewPipelineErrorf(moduleName, "unknown step target %q", step.Target, false)
	}
}

// extract derives page and character counts from the document size.
func (e *DocumentExecutor) extract(job *model.JobRecord) (json.RawMessage, error) {
	pages := pageCount(job.Subject.FileSize)
	return marshal(map[string]interface{}{
		"pages":      pages,
		"characters": pages * 1800,
		"source":     job.Subject.FileName,
	})
}

// ocr re-reads pages the text extraction could not cover.
func (e *DocumentExecutor) ocr(job *model.JobRecord) (json.RawMessage, error) {
	scanned := pageCount(job.Subject.FileSize) / 4
	return marshal(map[string]interface{}{
		"scanned_pages": scanned,
		"engine":        "tesseract",
	})
}

// analyze runs the AI model; a downgraded attempt reports the fallback model.
func (e *DocumentExecutor) analyze(job *model.JobRecord, opts runner.ExecOptions) (json.RawMessage, error) {
	modelName := opts.Model
	if modelName == "" {
		modelName = defaultModel
	}
	return marshal(map[string]interface{}{
		"model":   modelName,
		"summary": fmt.Sprintf("Document %s analyzed across %d pages.", job.Subject.FileName, pageCount(job.Subject.FileSize)),
		"score":   0.92,
	})
}

// cost prices the analysis from the extracted page count.
func (e *DocumentExecutor) cost(job *model.JobRecord) (json.RawMessage, error) {
	return marshal(map[string]interface{}{
		"cents":    pageCount(job.Subject.FileSize) * costPerPageCents,
		"currency": "USD",
	})
}

// decide approves documents whose analysis completed without degradation.
func (e *DocumentExecutor) decide(job *model.JobRecord) (json.RawMessage, error) {
	approved := !job.HasFailedStep("analyze")
	return marshal(map[string]interface{}{
		"approved": approved,
		"reason":   decisionReason(approved),
	})
}

// report summarizes the run for human consumption.
func (e *DocumentExecutor) report(job *model.JobRecord) (json.RawMessage, error) {
	return marshal(map[string]interface{}{
		"title":    fmt.Sprintf("Analysis report for %s", job.Subject.FileName),
		"warnings": len(job.Warnings),
		"steps":    len(job.CompletedSteps),
	})
}

func decisionReason(approved bool) string {
	if approved {
		return "analysis completed"
	}
	return "analysis degraded"
}

// pageCount estimates pages at roughly 4KiB each, with a one-page floor.
func pageCount(fileSize int64) int {
	pages := int(fileSize / 4096)
	if pages < 1 {
		pages = 1
	}
	return pages
}

func marshal(payload map[string]interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to marshal step payload", err, false)
	}
	return data, nil
}

var _ runner.StepExecutor = (*DocumentExecutor)(nil)
