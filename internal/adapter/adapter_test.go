package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
)

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("**A01** Broken Access Control [1]\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<strong>A01</strong>") {
		t.Errorf("markdown not rendered: %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("raw html must not pass through: %s", out)
	}
}

func TestToChatResponse(t *testing.T) {
	answer := commonModels.Answer{
		SessionId: "s1",
		Text:      "answer",
		Sources: []commonModels.ScoredChunk{
			{Chunk: commonModels.DocChunk{Source: "owasp-top-10.pdf", Position: 5, Chunk: strings.Repeat("x", 500)}, Score: 0.8},
			{Chunk: commonModels.DocChunk{Source: "mitre.pdf", Position: 2, Chunk: "short"}, Score: 0.5},
		},
		Debug: "Query: q\nRetrieved: 2 documents",
	}
	res := ToChatResponse(answer)

	if res.SourcesText != "Source: owasp-top-10.pdf, Page: 5\nSource: mitre.pdf, Page: 2" {
		t.Errorf("sources text = %q", res.SourcesText)
	}
	if len([]rune(res.Sources[0].Excerpt)) != excerptRunes {
		t.Errorf("excerpt not truncated: %d", len(res.Sources[0].Excerpt))
	}
}

func TestToAPIResponse(t *testing.T) {
	job := jobModel.Job{
		Id:          "j1",
		Status:      jobModel.JobStatusError,
		CurrentStep: jobModel.Error,
		Error:       jobModel.JobError{Code: 422, Message: "no content extracted"},
		CreatedTime: time.Now(),
	}
	res := ToAPIResponse(job)
	if res.Error == nil || res.Error.Code != 422 {
		t.Errorf("error not mapped: %+v", res.Error)
	}
	if res.Report != nil {
		t.Error("no report expected")
	}

	job.Error = jobModel.JobError{}
	job.JobPayload.Report = &jobModel.IngestReport{TotalChunks: 3, Duration: 2 * time.Second, Documents: []jobModel.DocumentReport{{DocumentId: "d", Chunks: 3}}}
	res = ToAPIResponse(job)
	if res.Error != nil || res.Report == nil || res.Report.DurationMs != 2000 || len(res.Report.Documents) != 1 {
		t.Errorf("unexpected response: %+v", res)
	}
	if ToInitJobResponse("j1").StatusURL != "/api/ingest/j1" {
		t.Error("status url")
	}
}
