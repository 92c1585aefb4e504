// Package compliance defines the compliance audit review.
//
// A reviewer checks a bound policy against underwriting rules and evidence
// quality, handles any flagged exception, and signs the audit off once
// governance has approved it.
package compliance

import (
	"guardflow/internal/guard"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
	"guardflow/internal/workflow"
)

// Name is the workflow identifier.
const Name = "compliance"

// Step ids.
const (
	StepIntake     = "intake"
	StepRules      = "rules"
	StepEvidence   = "evidence"
	StepExceptions = "exceptions"
	StepGovernance = "governance"
	StepSignoff    = "signoff"
)

// Reason classifies a flagged exception.
type Reason string

// Exception reasons.
const (
	ReasonNone            Reason = "none"
	ReasonLowEvidence     Reason = "low_evidence"
	ReasonRuleBreach      Reason = "rule_breach"
	ReasonPricingVariance Reason = "pricing_variance"
)

// State is the review record.
type State struct {
	RulesChecked          bool   `yaml:"rulesChecked" json:"rulesChecked"`
	EvidenceChecked       bool   `yaml:"evidenceChecked" json:"evidenceChecked"`
	ExceptionFlagged      bool   `yaml:"exceptionFlagged" json:"exceptionFlagged"`
	ExceptionReason       Reason `yaml:"exceptionReason" json:"exceptionReason" validate:"oneof=none low_evidence rule_breach pricing_variance"`
	ExceptionAcknowledged bool   `yaml:"exceptionAcknowledged" json:"exceptionAcknowledged"`
	GovernanceApproved    bool   `yaml:"governanceApproved" json:"governanceApproved"`
	SignedOff             bool   `yaml:"signedOff" json:"signedOff"`
}

// Defaults returns the state of a fresh review.
func Defaults() State {
	return State{ExceptionReason: ReasonNone}
}

// Steps returns the review's step registry.
func Steps() *step.Registry {
	return step.NewRegistry(
		step.Step{ID: StepIntake, Title: "Intake", Subtitle: "A bound policy has been sampled for review"},
		step.Step{ID: StepRules, Title: "Rules check", Subtitle: "Run the underwriting rule set against the file"},
		step.Step{ID: StepEvidence, Title: "Evidence quality", Subtitle: "Confirm the supporting evidence meets the standard"},
		step.Step{ID: StepExceptions, Title: "Exceptions", Subtitle: "Acknowledge any flagged exception"},
		step.Step{ID: StepGovernance, Title: "Governance", Subtitle: "Record governance approval"},
		step.Step{ID: StepSignoff, Title: "Sign-off", Subtitle: "Close the audit"},
	)
}

var recommended = map[Reason]string{
	ReasonLowEvidence:     "Request additional documentation",
	ReasonRuleBreach:      "Escalate to compliance officer",
	ReasonPricingVariance: "Refer to pricing committee",
}

// RecommendedAction returns the follow-up for the state's exception reason.
func RecommendedAction(s State) string {
	if text, ok := recommended[s.ExceptionReason]; ok {
		return text
	}
	return "No action required"
}

type transition = workflow.Transition[State]

func flag(reason Reason, detail string) func(State) transition {
	return func(s State) transition {
		switch reason {
		case ReasonRuleBreach:
			s.RulesChecked = true
		default:
			s.EvidenceChecked = true
		}
		s.ExceptionFlagged = true
		s.ExceptionReason = reason
		// A new exception needs its own acknowledgement.
		s.ExceptionAcknowledged = false
		return transition{State: s, Message: "Exception flagged: " + detail, Next: StepExceptions}
	}
}

// Definition returns the compliance review workflow.
func Definition() workflow.Definition[State] {
	return workflow.Definition[State]{
		Name:     Name,
		Title:    "Compliance review",
		Steps:    Steps(),
		Defaults: Defaults(),
		Guards: guard.Table[State]{
			StepIntake:     guard.Always[State](),
			StepRules:      func(s State) bool { return s.RulesChecked },
			StepEvidence:   func(s State) bool { return s.EvidenceChecked },
			StepExceptions: func(s State) bool { return !s.ExceptionFlagged || s.ExceptionAcknowledged },
			StepGovernance: func(s State) bool { return s.GovernanceApproved },
			StepSignoff:    func(s State) bool { return s.SignedOff },
		},
		Actions: []workflow.Action[State]{
			{ID: "run-rules", Label: "Run rules", Step: StepRules, Apply: func(s State) transition {
				s.RulesChecked = true
				return transition{State: s, Message: "Rules checked", Next: StepEvidence}
			}},
			{ID: "flag-rule-breach", Label: "Flag rule breach", Step: StepRules,
				Apply: flag(ReasonRuleBreach, "rule breach (underwriting rule violated)")},
			{ID: "confirm-evidence", Label: "Confirm evidence quality", Step: StepEvidence, Apply: func(s State) transition {
				s.EvidenceChecked = true
				return transition{State: s, Message: "Evidence quality confirmed", Next: StepGovernance}
			}},
			{ID: "flag-low-evidence", Label: "Flag low evidence", Step: StepEvidence,
				Apply: flag(ReasonLowEvidence, "low evidence (quality below threshold)")},
			{ID: "flag-pricing-variance", Label: "Flag pricing variance", Step: StepEvidence,
				Apply: flag(ReasonPricingVariance, "pricing variance (outside tolerance)")},
			{ID: "acknowledge-exception", Label: "Acknowledge exception", Step: StepExceptions, Apply: func(s State) transition {
				s.ExceptionAcknowledged = true
				return transition{State: s, Message: "Exception acknowledged: " + RecommendedAction(s), Next: StepGovernance}
			}},
			{ID: "approve-governance", Label: "Approve governance", Step: StepGovernance, Apply: func(s State) transition {
				s.GovernanceApproved = true
				return transition{State: s, Message: "Governance approved", Next: StepSignoff}
			}},
			{ID: "sign-off", Label: "Sign off audit", Step: StepSignoff, Apply: func(s State) transition {
				s.SignedOff = true
				return transition{State: s, Message: "Audit signed off", ReturnToEntry: true}
			}},
		},
		Snapshot: Project,
		Notes: func(s State, stepID string) []workflow.Note {
			if stepID != StepExceptions || !s.ExceptionFlagged {
				return nil
			}
			return []workflow.Note{
				{Label: "Reason", Value: string(s.ExceptionReason)},
				{Label: "Recommended action", Value: RecommendedAction(s)},
			}
		},
	}
}

// Project returns the review's snapshot badges.
func Project(s State) []snapshot.Badge {
	return []snapshot.Badge{
		{Label: "Rules checked", Active: s.RulesChecked},
		{Label: "Evidence checked", Active: s.EvidenceChecked},
		{Label: "Exception flagged", Active: s.ExceptionFlagged},
		{Label: "Governance approved", Active: s.GovernanceApproved},
		{Label: "Signed off", Active: s.SignedOff},
	}
}
