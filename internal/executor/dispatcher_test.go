package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/events"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor/mocks"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	validatormocks "github.com/povarna/generative-ai-agents/guard-agent/internal/validator/mocks"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type recordingEmitter struct {
	events []events.ValidationEvent
}

func (r *recordingEmitter) Emit(_ context.Context, event events.ValidationEvent) {
	r.events = append(r.events, event)
}

func newMockGuard(t *testing.T, ctrl *gomock.Controller, policy models.OnFailPolicy) (*guard.Guard, *validatormocks.MockValidator) {
	t.Helper()
	v := validatormocks.NewMockValidator(ctrl)
	v.EXPECT().Name().Return("detect_pii").AnyTimes()
	v.EXPECT().OnFail().Return(policy).AnyTimes()

	g, err := guard.New("pii-input-guard", "", models.DirectionPrompt, []validator.Validator{v}, testLogger())
	if err != nil {
		t.Fatalf("guard.New failed: %v", err)
	}
	return g, v
}

func TestDispatcher_Dispatch(t *testing.T) {
	fixed := "Contact me at <EMAIL_ADDRESS>"

	tests := []struct {
		name         string
		text         string
		verdict      models.Verdict
		checkErr     error
		expectCheck  bool
		expectErr    func(error) bool
		expectPassed bool
		expectText   string
		expectResult string
	}{
		{
			name:         "clean text passes",
			text:         "hello",
			verdict:      models.Verdict{Validator: "detect_pii", Passed: true},
			expectCheck:  true,
			expectPassed: true,
			expectText:   "hello",
			expectResult: events.DecisionPass,
		},
		{
			name: "fixed text",
			text: "Contact me at a@b.com",
			verdict: models.Verdict{
				Validator:   "detect_pii",
				Kind:        models.KindPIIDetection,
				FailedSpans: []models.Span{{Start: 14, End: 21, Label: "EMAIL_ADDRESS", Score: 1}},
				FixedText:   &fixed,
			},
			expectCheck:  true,
			expectPassed: true,
			expectText:   fixed,
			expectResult: events.DecisionFixed,
		},
		{
			name:        "backend error propagates",
			text:        "hello",
			checkErr:    &validator.DetectionBackendError{Validator: "detect_pii", Backend: "ner-sidecar", Err: errors.New("down")},
			expectCheck: true,
			expectErr: func(err error) bool {
				var backendErr *validator.DetectionBackendError
				return errors.As(err, &backendErr)
			},
			expectResult: events.DecisionError,
		},
		{
			name: "empty text rejected before the pipeline",
			text: "",
			expectErr: func(err error) bool {
				var emptyErr *EmptyInputError
				return errors.As(err, &emptyErr)
			},
			expectResult: events.DecisionError,
		},
		{
			name: "whitespace text rejected before the pipeline",
			text: " \n\t ",
			expectErr: func(err error) bool {
				var emptyErr *EmptyInputError
				return errors.As(err, &emptyErr)
			},
			expectResult: events.DecisionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			lookup := mocks.NewMockGuardLookup(ctrl)
			g, v := newMockGuard(t, ctrl, models.OnFailFix)
			emitter := &recordingEmitter{}

			lookup.EXPECT().Get("pii-input-guard").Return(g, nil)
			if tt.expectCheck {
				v.EXPECT().Check(gomock.Any(), tt.text).Return(tt.verdict, tt.checkErr)
			}

			dispatcher := NewDispatcher(lookup, emitter, testLogger())
			outcome, err := dispatcher.Dispatch(context.Background(), "pii-input-guard", tt.text)

			if tt.expectErr != nil {
				if !tt.expectErr(err) {
					t.Fatalf("Unexpected error %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("Dispatch failed: %v", err)
				}
				if outcome.Passed != tt.expectPassed {
					t.Errorf("Expected passed=%v, got %v", tt.expectPassed, outcome.Passed)
				}
				if outcome.FinalText != tt.expectText {
					t.Errorf("Expected text %q, got %q", tt.expectText, outcome.FinalText)
				}
			}

			if outcome.RequestID == "" {
				t.Error("Expected a generated request ID")
			}
			if len(emitter.events) != 1 {
				t.Fatalf("Expected 1 event, got %d", len(emitter.events))
			}
			if emitter.events[0].Decision != tt.expectResult {
				t.Errorf("Expected decision %s, got %s", tt.expectResult, emitter.events[0].Decision)
			}
			if emitter.events[0].RequestID != outcome.RequestID {
				t.Errorf("Expected event request ID %s, got %s", outcome.RequestID, emitter.events[0].RequestID)
			}
		})
	}
}

func TestDispatcher_UnknownGuardNeverRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockGuardLookup(ctrl)
	emitter := &recordingEmitter{}

	lookup.EXPECT().Get("missing").Return(nil, &guard.UnknownGuardError{Name: "missing"})

	dispatcher := NewDispatcher(lookup, emitter, testLogger())
	outcome, err := dispatcher.Dispatch(context.Background(), "missing", "some text")

	var unknown *guard.UnknownGuardError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownGuardError, got %v", err)
	}
	if len(outcome.PerValidator) != 0 {
		t.Errorf("Expected no verdicts, got %+v", outcome.PerValidator)
	}
	if len(emitter.events) != 1 || emitter.events[0].Error == "" {
		t.Errorf("Expected an error event, got %+v", emitter.events)
	}
}

func TestDispatcher_UnknownGuardWithEmptyText(t *testing.T) {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockGuardLookup(ctrl)

	lookup.EXPECT().Get("missing").Return(nil, &guard.UnknownGuardError{Name: "missing"})

	_, err := NewDispatcher(lookup, nil, testLogger()).Dispatch(context.Background(), "missing", "")

	var unknown *guard.UnknownGuardError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected lookup to fail first, got %v", err)
	}
}

func TestDispatcher_ExceptionPolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockGuardLookup(ctrl)
	g, v := newMockGuard(t, ctrl, models.OnFailException)
	emitter := &recordingEmitter{}

	lookup.EXPECT().Get("pii-input-guard").Return(g, nil)
	v.EXPECT().Check(gomock.Any(), "a@b.com").Return(models.Verdict{
		Validator:   "detect_pii",
		Kind:        models.KindPIIDetection,
		FailedSpans: []models.Span{{Start: 0, End: 7, Label: "EMAIL_ADDRESS", Score: 1}},
	}, nil)

	_, err := NewDispatcher(lookup, emitter, testLogger()).Dispatch(context.Background(), "pii-input-guard", "a@b.com")

	var rejected *guard.GuardRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("Expected GuardRejected, got %v", err)
	}
	if emitter.events[0].Decision != events.DecisionRejected {
		t.Errorf("Expected rejected decision, got %s", emitter.events[0].Decision)
	}
	if len(emitter.events[0].Failures) != 1 {
		t.Errorf("Expected the failing span in the event, got %+v", emitter.events[0].Failures)
	}
}

func TestDispatcher_KeepsCallerRequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockGuardLookup(ctrl)
	g, v := newMockGuard(t, ctrl, models.OnFailFix)

	lookup.EXPECT().Get("pii-input-guard").Return(g, nil)
	v.EXPECT().Check(gomock.Any(), "hi").Return(models.Verdict{Validator: "detect_pii", Passed: true}, nil)

	outcome, err := NewDispatcher(lookup, nil, testLogger()).DispatchRequest(context.Background(), models.ValidateRequest{
		RequestID: "req-42",
		Guard:     "pii-input-guard",
		Text:      "hi",
	})
	if err != nil {
		t.Fatalf("DispatchRequest failed: %v", err)
	}
	if outcome.RequestID != "req-42" {
		t.Errorf("Expected request ID req-42, got %s", outcome.RequestID)
	}
}

func TestNewResponse(t *testing.T) {
	outcome := models.ValidationOutcome{RequestID: "req-1", GuardName: "g", OriginalText: "t", FinalText: "t"}

	ok := NewResponse(models.ValidationOutcome{RequestID: "req-1", GuardName: "g", Passed: true, FinalText: "t"}, nil)
	if !ok.Passed || ok.Error != "" || ok.Failures == nil {
		t.Errorf("Unexpected success response %+v", ok)
	}

	rejected := NewResponse(outcome, &guard.GuardRejected{Guard: "g", Verdict: models.Verdict{
		Validator:   "detect_pii",
		FailedSpans: []models.Span{{Start: 0, End: 1, Label: "US_SSN", Score: 1}},
	}})
	if rejected.Passed || len(rejected.Failures) != 1 || rejected.Error == "" {
		t.Errorf("Unexpected rejection response %+v", rejected)
	}

	failed := NewResponse(outcome, &EmptyInputError{Guard: "g"})
	if failed.Passed || len(failed.Failures) != 0 || failed.RequestID != "req-1" {
		t.Errorf("Unexpected error response %+v", failed)
	}
}
