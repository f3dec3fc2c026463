package models

import (
	"time"
)

type Direction string

const (
	DirectionPrompt Direction = "prompt"
	DirectionOutput Direction = "output"
)

func (d Direction) Valid() bool {
	return d == DirectionPrompt || d == DirectionOutput
}

// OnFailPolicy is the action a guard takes when a validator reports a failure.
type OnFailPolicy string

const (
	OnFailFix       OnFailPolicy = "fix"
	OnFailNoop      OnFailPolicy = "noop"
	OnFailException OnFailPolicy = "exception"
	OnFailReask     OnFailPolicy = "reask"
)

func (p OnFailPolicy) Valid() bool {
	switch p {
	case OnFailFix, OnFailNoop, OnFailException, OnFailReask:
		return true
	}
	return false
}

type ValidatorKind string

const (
	KindPIIDetection ValidatorKind = "PII_DETECTION"
	KindToxicity     ValidatorKind = "TOXICITY"
)

type Granularity string

const (
	GranularityDocument Granularity = "document"
	GranularitySentence Granularity = "sentence"
)

// Span marks a flagged region of the text a validator inspected.
// Start and End are byte offsets, End exclusive.
type Span struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// One validator's output
type Verdict struct {
	Validator   string        `json:"validator"`
	Kind        ValidatorKind `json:"kind"`
	OnFail      OnFailPolicy  `json:"on_fail"`
	Passed      bool          `json:"passed"`
	FailedSpans []Span        `json:"failed_spans,omitempty"`
	FixedText   *string       `json:"fixed_text,omitempty"`
	Score       *float64      `json:"score,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Aggregate result of running a guard on one text
type ValidationOutcome struct {
	RequestID    string    `json:"request_id"`
	GuardName    string    `json:"guard_name"`
	Direction    Direction `json:"direction"`
	OriginalText string    `json:"original_text"`
	FinalText    string    `json:"final_text"`
	Passed       bool      `json:"passed"`
	PerValidator []Verdict `json:"per_validator"`
}

// GuardDescription is the introspection view of a registered guard.
type GuardDescription struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Direction   Direction              `json:"direction"`
	Validators  []ValidatorDescription `json:"validators"`
}

type ValidatorDescription struct {
	Name       string         `json:"name"`
	Kind       ValidatorKind  `json:"kind"`
	OnFail     OnFailPolicy   `json:"on_fail"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
