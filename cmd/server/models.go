package main

import (
	"github.com/koekalenteri/qualification/eligibility"
	"github.com/koekalenteri/qualification/rules"
)

// API Request and Response Models

// QualificationRequest is a qualification check. A previous event of the
// same type sets the start of the qualification period.
type QualificationRequest struct {
	rules.QualifyRequest
	PreviousEvent *rules.Event `json:"previousEvent,omitempty"`
} // @name QualificationRequest

// QualificationResponse is the outcome of a single class
type QualificationResponse struct {
	rules.Outcome
	// Manual result pre-filled with the first requirement still missing
	Missing        *rules.QualifyingResult `json:"missing,omitempty"`
	EvaluationTime string                  `json:"evaluationTime" example:"150µs"`
}

// ClassesResponse holds the outcomes of every class of an event
type ClassesResponse struct {
	Classes        []rules.ClassOutcome `json:"classes"`
	EvaluationTime string               `json:"evaluationTime" example:"300µs"`
}

// RequirementsResponse describes the rule set in force for an event type
type RequirementsResponse struct {
	EventType string      `json:"eventType" example:"NOME-B"`
	Class     rules.Class `json:"class,omitempty" example:"AVO"`
	RuleDate  string      `json:"ruleDate" example:"2023-04-15"`

	// Custom rule sets cannot be listed as requirements
	Custom       bool                `json:"custom"`
	Alternatives []rules.Alternative `json:"alternatives,omitempty"`
	ResultTypes  []string            `json:"resultTypes"`
	ResultCodes  []string            `json:"resultCodes"`
} // @name RequirementsResponse

// ResultView is a stored result with its display code
type ResultView struct {
	rules.Result
	Code string `json:"code" example:"A1 CERT"`
} // @name ResultView

// ResultsListResponse represents the official results of a dog
type ResultsListResponse struct {
	Results []ResultView `json:"results"`
} // @name ResultsListResponse

// ValidateDogRequest represents the request body for checking dog eligibility
type ValidateDogRequest struct {
	Event rules.Event     `json:"event"`
	Dog   eligibility.Dog `json:"dog"`
} // @name ValidateDogRequest

// ValidateDogResponse represents the eligibility of a dog
type ValidateDogResponse struct {
	Eligible  bool                   `json:"eligible" example:"true"`
	Violation *eligibility.Violation `json:"violation,omitempty"`
} // @name ValidateDogResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid request body"`
	Details string `json:"details,omitempty"`
} // @name ErrorResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
	Error  string `json:"error,omitempty"`
} // @name HealthResponse
