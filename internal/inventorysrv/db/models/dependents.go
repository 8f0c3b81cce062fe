package models

// DependentKind names a table whose rows reference a component and must be
// removed before the component itself.
type DependentKind string

const (
	DependentAnalysisComments          DependentKind = "analysis_comments"
	DependentAnalyses                  DependentKind = "analyses"
	DependentViolationAnalysisComments DependentKind = "violation_analysis_comments"
	DependentViolationAnalyses         DependentKind = "violation_analyses"
	DependentMetrics                   DependentKind = "dependency_metrics"
	DependentFindingAttributions       DependentKind = "finding_attributions"
	DependentPolicyViolations          DependentKind = "policy_violations"
)

// ComponentDependents lists the dependent kinds in deletion order. Comment
// tables reference their analysis rows, so they go first.
var ComponentDependents = []DependentKind{
	DependentAnalysisComments,
	DependentAnalyses,
	DependentViolationAnalysisComments,
	DependentViolationAnalyses,
	DependentMetrics,
	DependentFindingAttributions,
	DependentPolicyViolations,
}
