package batch

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestReader_InvalidFile(t *testing.T) {
	file := strings.NewReader("invalid file content")

	reader := NewReader(file, newTestLogger())
	ctx := context.Background()
	ch := reader.ReadAll(ctx)

	for record := range ch {
		if record.Error == nil {
			t.Errorf("expected parse error for invalid JSON, but got none")
		}
	}
}

func TestReader_ValidFile(t *testing.T) {
	inputFile := `{"request_id":"1","guard":"pii-input-guard","text":"mail a@b.com"}
  {"request_id":"2","guard":"toxicity-guard","text":"hello","expect_passed":true}`

	file := strings.NewReader(inputFile)

	ctx := context.Background()
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(ctx)
	var records []InputRecord
	for record := range ch {
		if record.Error != nil {
			t.Errorf("Error reading the validation request record. Got: %s", record.Error)
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 validation request messages. Got: %d", len(records))
	}
	if records[0].Request.Guard != "pii-input-guard" || records[0].Request.ExpectPassed != nil {
		t.Errorf("Unexpected first record %+v", records[0].Request)
	}
	if records[1].Request.ExpectPassed == nil || !*records[1].Request.ExpectPassed {
		t.Errorf("Expected expect_passed=true on second record")
	}
}

func TestReader_MissingGuard(t *testing.T) {
	reader := NewReader(strings.NewReader(`{"text":"hello"}`), newTestLogger())

	for record := range reader.ReadAll(context.Background()) {
		if record.Error == nil || !strings.Contains(record.Error.Error(), "guard is required") {
			t.Errorf("Expected missing guard error, got %v", record.Error)
		}
	}
}

func TestReader_ContextCancellation(t *testing.T) {
	// Large input with many lines
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, `{"request_id":"1","guard":"pii-input-guard","text":"hello"}`)
	}
	file := strings.NewReader(strings.Join(lines, "\n"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(ctx)
	count := 0
	for range ch {
		count++
		if count == 5 {
			cancel() // Cancel after 5 records
			break
		}
	}

	// Should have stopped early
	if count >= 100 {
		t.Errorf("expected early cancellation, but read all records")
	}
}

func TestReader_LineNumbers(t *testing.T) {
	inputFile := `{"request_id":"1","guard":"pii-input-guard","text":"one"}

{"invalid json}
{"request_id":"2","guard":"pii-input-guard","text":"two"}`

	file := strings.NewReader(inputFile)
	reader := NewReader(file, newTestLogger())

	ch := reader.ReadAll(context.Background())
	records := []InputRecord{}
	for record := range ch {
		records = append(records, record)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].LineNumber != 1 {
		t.Errorf("first record should be line 1, got %d", records[0].LineNumber)
	}
	if records[1].LineNumber != 3 || records[1].Error == nil {
		t.Errorf("error record should be line 3, got %d", records[1].LineNumber)
	}
	if records[2].LineNumber != 4 {
		t.Errorf("third record should be line 4, got %d", records[2].LineNumber)
	}
}
