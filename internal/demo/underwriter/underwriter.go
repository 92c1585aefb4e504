// Package underwriter defines the senior-underwriter override decision.
package underwriter

import (
	"guardflow/internal/guard"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
	"guardflow/internal/workflow"
)

// Name is the workflow identifier.
const Name = "underwriter"

// Step ids.
const (
	StepBrief     = "brief"
	StepEvidence  = "evidence"
	StepPortfolio = "portfolio"
	StepOverride  = "override"
	StepDecision  = "decision"
	StepConfirm   = "confirm"
)

// Decision is the outcome of the override case.
type Decision string

// Decisions.
const (
	DecisionPending         Decision = "pending"
	DecisionApproveOverride Decision = "approve_override"
	DecisionDecline         Decision = "decline"
	DecisionEscalate        Decision = "escalate"
)

// State is the override case record.
type State struct {
	EvidenceReviewed   bool     `yaml:"evidenceReviewed" json:"evidenceReviewed"`
	PortfolioChecked   bool     `yaml:"portfolioChecked" json:"portfolioChecked"`
	GovernanceApproved bool     `yaml:"governanceApproved" json:"governanceApproved"`
	EscalatedToCarrier bool     `yaml:"escalatedToCarrier" json:"escalatedToCarrier"`
	Decision           Decision `yaml:"decision" json:"decision" validate:"oneof=pending approve_override decline escalate"`
	DecisionLocked     bool     `yaml:"decisionLocked" json:"decisionLocked"`
}

// Defaults returns the state of a fresh case.
func Defaults() State {
	return State{Decision: DecisionPending}
}

// Steps returns the case's step registry.
func Steps() *step.Registry {
	return step.NewRegistry(
		step.Step{ID: StepBrief, Title: "Case brief", Subtitle: "A referred risk sits outside delegated authority"},
		step.Step{ID: StepEvidence, Title: "Evidence", Subtitle: "Review the broker submission and loss history"},
		step.Step{ID: StepPortfolio, Title: "Portfolio impact", Subtitle: "Check accumulation against portfolio limits"},
		step.Step{ID: StepOverride, Title: "Override authority", Subtitle: "Obtain governance approval or escalate to the carrier"},
		step.Step{ID: StepDecision, Title: "Decision", Subtitle: "Approve the override or decline the risk"},
		step.Step{ID: StepConfirm, Title: "Confirm", Subtitle: "Lock the decision for the record"},
	)
}

// DecisionBadge returns the display label of the state's decision.
func DecisionBadge(s State) string {
	switch s.Decision {
	case DecisionApproveOverride:
		return "Approve override"
	case DecisionDecline:
		return "Decline"
	case DecisionEscalate:
		return "Escalate"
	default:
		return "Pending"
	}
}

// CanDecide reports whether the current decision is supported by the case.
func CanDecide(s State) bool {
	switch s.Decision {
	case DecisionApproveOverride:
		return s.GovernanceApproved && s.PortfolioChecked
	case DecisionDecline:
		return true
	case DecisionEscalate:
		return s.EscalatedToCarrier
	default:
		return false
	}
}

type transition = workflow.Transition[State]

// Definition returns the override workflow.
func Definition() workflow.Definition[State] {
	return workflow.Definition[State]{
		Name:     Name,
		Title:    "Senior underwriter override",
		Steps:    Steps(),
		Defaults: Defaults(),
		Guards: guard.Table[State]{
			StepBrief:     guard.Always[State](),
			StepEvidence:  func(s State) bool { return s.EvidenceReviewed },
			StepPortfolio: func(s State) bool { return s.PortfolioChecked },
			StepOverride: guard.Any[State](
				func(s State) bool { return s.GovernanceApproved },
				func(s State) bool { return s.EscalatedToCarrier },
			),
			StepDecision: CanDecide,
			StepConfirm:  func(s State) bool { return s.DecisionLocked },
		},
		Actions: []workflow.Action[State]{
			{ID: "review-evidence", Label: "Mark evidence reviewed", Step: StepEvidence, Apply: func(s State) transition {
				s.EvidenceReviewed = true
				return transition{State: s, Message: "Evidence reviewed", Next: StepPortfolio}
			}},
			{ID: "check-portfolio", Label: "Check portfolio impact", Step: StepPortfolio, Apply: func(s State) transition {
				s.PortfolioChecked = true
				return transition{State: s, Message: "Portfolio impact checked", Next: StepOverride}
			}},
			{ID: "request-governance", Label: "Request governance approval", Step: StepOverride, Apply: func(s State) transition {
				s.GovernanceApproved = true
				return transition{State: s, Message: "Governance approval recorded"}
			}},
			{ID: "escalate-carrier", Label: "Escalate to carrier", Step: StepOverride, Apply: func(s State) transition {
				s.EscalatedToCarrier = true
				s.Decision = DecisionEscalate
				return transition{State: s, Message: "Escalated to Carrier Authority", Next: StepConfirm}
			}},
			{ID: "approve-override", Label: "Approve override", Step: StepDecision, Apply: func(s State) transition {
				s.Decision = DecisionApproveOverride
				return transition{State: s, Message: "Decision: approve override"}
			}},
			{ID: "decline", Label: "Decline", Step: StepDecision, Apply: func(s State) transition {
				s.Decision = DecisionDecline
				return transition{State: s, Message: "Decision: decline"}
			}},
			{ID: "lock-decision", Label: "Lock decision", Step: StepConfirm, Apply: func(s State) transition {
				s.DecisionLocked = true
				return transition{State: s, Message: "Decision locked", ReturnToEntry: true}
			}},
		},
		Snapshot: Project,
		Notes: func(s State, stepID string) []workflow.Note {
			if stepID != StepDecision && stepID != StepConfirm {
				return nil
			}
			return []workflow.Note{{Label: "Decision", Value: DecisionBadge(s)}}
		},
	}
}

// Project returns the case's snapshot badges.
func Project(s State) []snapshot.Badge {
	return []snapshot.Badge{
		{Label: "Evidence reviewed", Active: s.EvidenceReviewed},
		{Label: "Portfolio checked", Active: s.PortfolioChecked},
		{Label: "Governance approved", Active: s.GovernanceApproved},
		{Label: "Escalated", Active: s.EscalatedToCarrier},
		{Label: "Decision locked", Active: s.DecisionLocked},
	}
}
