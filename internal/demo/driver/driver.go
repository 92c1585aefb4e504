// Package driver defines the driver onboarding and claims journey.
//
// The journey walks a motor policyholder from identity verification through
// quoting, policy activation, a first notice of loss and handler assignment.
package driver

import (
	"guardflow/internal/guard"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
	"guardflow/internal/workflow"
)

// Name is the workflow identifier.
const Name = "driver"

// Step ids.
const (
	StepIdentity = "identity"
	StepQuote    = "quote"
	StepPolicy   = "policy"
	StepClaim    = "claim"
	StepHandler  = "handler"
	StepSummary  = "summary"
)

// ClaimType is the kind of claim filed on the claim step.
type ClaimType string

// Claim types.
const (
	ClaimNone      ClaimType = "none"
	ClaimCollision ClaimType = "collision"
	ClaimTheft     ClaimType = "theft"
	ClaimGlass     ClaimType = "glass"
)

// State is the driver journey progress record.
type State struct {
	Verified        bool      `yaml:"verified" json:"verified"`
	QuoteReady      bool      `yaml:"quoteReady" json:"quoteReady"`
	PolicyActive    bool      `yaml:"policyActive" json:"policyActive"`
	ClaimSubmitted  bool      `yaml:"claimSubmitted" json:"claimSubmitted"`
	ClaimType       ClaimType `yaml:"claimType" json:"claimType" validate:"oneof=none collision theft glass"`
	HandlerAssigned bool      `yaml:"handlerAssigned" json:"handlerAssigned"`
}

// Defaults returns the state of a fresh journey.
func Defaults() State {
	return State{ClaimType: ClaimNone}
}

// Steps returns the journey's step registry.
func Steps() *step.Registry {
	return step.NewRegistry(
		step.Step{ID: StepIdentity, Title: "Verify identity", Subtitle: "Confirm the driver's licence and identity documents"},
		step.Step{ID: StepQuote, Title: "Quote", Subtitle: "Price motor cover from the driver profile"},
		step.Step{ID: StepPolicy, Title: "Policy", Subtitle: "Bind and activate the policy"},
		step.Step{ID: StepClaim, Title: "First notice of loss", Subtitle: "File a claim against the active policy"},
		step.Step{ID: StepHandler, Title: "Claim handling", Subtitle: "Route the claim to a handler"},
		step.Step{ID: StepSummary, Title: "Summary", Subtitle: "Review the journey end to end"},
	)
}

type transition = workflow.Transition[State]

func submitClaim(ct ClaimType) func(State) transition {
	return func(s State) transition {
		s.ClaimSubmitted = true
		s.ClaimType = ct
		return transition{State: s, Message: "Claim submitted: " + string(ct), Next: StepHandler}
	}
}

// Definition returns the driver journey workflow.
func Definition() workflow.Definition[State] {
	return workflow.Definition[State]{
		Name:     Name,
		Title:    "Driver journey",
		Steps:    Steps(),
		Defaults: Defaults(),
		Guards: guard.Table[State]{
			StepIdentity: func(s State) bool { return s.Verified },
			StepQuote:    func(s State) bool { return s.QuoteReady },
			StepPolicy:   func(s State) bool { return s.PolicyActive },
			StepClaim:    func(s State) bool { return s.ClaimSubmitted },
			StepHandler:  func(s State) bool { return s.HandlerAssigned },
			StepSummary:  guard.Always[State](),
		},
		Actions: []workflow.Action[State]{
			{ID: "verify-identity", Label: "Verify identity", Step: StepIdentity, Apply: func(s State) transition {
				s.Verified = true
				return transition{State: s, Message: "Identity verified", Next: StepQuote}
			}},
			{ID: "generate-quote", Label: "Generate quote", Step: StepQuote, Apply: func(s State) transition {
				s.QuoteReady = true
				return transition{State: s, Message: "Quote generated"}
			}},
			{ID: "activate-policy", Label: "Activate policy", Step: StepPolicy, Apply: func(s State) transition {
				s.PolicyActive = true
				return transition{State: s, Message: "Policy activated", Next: StepClaim}
			}},
			{ID: "submit-claim-collision", Label: "Report collision", Step: StepClaim, Apply: submitClaim(ClaimCollision)},
			{ID: "submit-claim-theft", Label: "Report theft", Step: StepClaim, Apply: submitClaim(ClaimTheft)},
			{ID: "submit-claim-glass", Label: "Report glass damage", Step: StepClaim, Apply: submitClaim(ClaimGlass)},
			{ID: "assign-handler", Label: "Assign handler", Step: StepHandler, Apply: func(s State) transition {
				s.HandlerAssigned = true
				return transition{State: s, Message: "Handler assigned", Next: StepSummary}
			}},
			{ID: "finish-journey", Label: "Finish journey", Step: StepSummary, Apply: func(s State) transition {
				return transition{State: s, Message: "Journey completed", ReturnToEntry: true}
			}},
		},
		Snapshot: Project,
		Notes:    notes,
	}
}

// Project returns the journey's snapshot badges.
func Project(s State) []snapshot.Badge {
	return []snapshot.Badge{
		{Label: "Verified", Active: s.Verified},
		{Label: "Quote ready", Active: s.QuoteReady},
		{Label: "Policy active", Active: s.PolicyActive},
		{Label: "Claim submitted", Active: s.ClaimSubmitted},
		{Label: "Handler assigned", Active: s.HandlerAssigned},
	}
}

func notes(s State, stepID string) []workflow.Note {
	switch stepID {
	case StepClaim, StepHandler, StepSummary:
		if s.ClaimSubmitted {
			return []workflow.Note{{Label: "Claim type", Value: string(s.ClaimType)}}
		}
	}
	return nil
}
