package models

import (
	"errors"
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *QueryRequest
		wantErr bool
	}{
		{"empty question", &QueryRequest{Question: ""}, true},
		{"whitespace question", &QueryRequest{Question: "  \n\t"}, true},
		{"valid question", &QueryRequest{Question: "what is this?"}, false},
		{"scoped question", &QueryRequest{DocumentID: " doc-1 ", Question: "why"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestQueryRequest_ValidateTrimsDocumentID(t *testing.T) {
	req := &QueryRequest{DocumentID: " doc-1 ", Question: " q "}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.DocumentID != "doc-1" || req.Question != "q" {
		t.Errorf("got document_id=%q question=%q", req.DocumentID, req.Question)
	}
}

func TestIngestRequest_Validate(t *testing.T) {
	if err := (&IngestRequest{}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty id: got %v", err)
	}
	if err := (&IngestRequest{DocumentID: "abc"}).Validate(); err != nil {
		t.Errorf("valid id: got %v", err)
	}
}

func TestRetrievalResult_Score(t *testing.T) {
	r := &RetrievalResult{Distance: 0.25}
	if r.Score() != 0.75 {
		t.Errorf("Score: got %v", r.Score())
	}
}
