package service

import (
	"math"
	"strings"
	"sync"

	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/types"
)

// CriterionChecker decides whether a criterion holds for an activity snapshot
type CriterionChecker interface {
	Check(criterion types.Criterion, snapshot types.ActivitySnapshot) bool
}

// CriterionCheckerFunc adapts a function to CriterionChecker
type CriterionCheckerFunc func(criterion types.Criterion, snapshot types.ActivitySnapshot) bool

// Check calls f(criterion, snapshot)
func (f CriterionCheckerFunc) Check(criterion types.Criterion, snapshot types.ActivitySnapshot) bool {
	return f(criterion, snapshot)
}

// EligibilityScorer scores projects by the share of their criteria a wallet meets
type EligibilityScorer struct {
	mu       sync.RWMutex
	checkers map[types.CriterionKind]CriterionChecker
	logger   *logging.Logger
}

// NewEligibilityScorer creates a scorer with the built-in criterion kinds registered
func NewEligibilityScorer() *EligibilityScorer {
	s := &EligibilityScorer{
		checkers: make(map[types.CriterionKind]CriterionChecker),
		logger:   logging.GetGlobalLogger().WithField("component", "eligibility_scorer"),
	}

	s.Register(types.CriterionMinInteractions, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return snap.TotalInteractions >= c.Params.Min
	}))
	s.Register(types.CriterionCategoryInteractions, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return snap.Categories[c.Params.Category] >= atLeastOne(c.Params.Min)
	}))
	s.Register(types.CriterionMinProtocols, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return snap.UniqueProtocols >= c.Params.Min
	}))
	s.Register(types.CriterionMinActiveMonths, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return snap.ActiveMonths >= c.Params.Min
	}))
	s.Register(types.CriterionUsedProtocol, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		name := strings.ToLower(strings.TrimSpace(c.Params.Protocol))
		return name != "" && snap.Protocols[name] >= atLeastOne(c.Params.Min)
	}))
	s.Register(types.CriterionMinChains, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return len(snap.Chains) >= c.Params.Min
	}))
	s.Register(types.CriterionActiveCategories, CriterionCheckerFunc(func(c types.Criterion, snap types.ActivitySnapshot) bool {
		return snap.ActiveCategories >= c.Params.Min
	}))

	return s
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Register installs or replaces the checker for a criterion kind
func (s *EligibilityScorer) Register(kind types.CriterionKind, checker CriterionChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[kind] = checker
}

// Kinds returns the number of registered criterion kinds
func (s *EligibilityScorer) Kinds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checkers)
}

// Evaluate scores a single project against a snapshot.
// Criteria of an unregistered kind are reported as not met.
func (s *EligibilityScorer) Evaluate(project types.Project, snapshot types.ActivitySnapshot) types.EligibilityReport {
	report := types.EligibilityReport{
		ProjectID: project.ID,
		Name:      project.Name,
		Status:    project.Status,
		Criteria:  make([]types.CriterionResult, 0, len(project.Criteria)),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	met := 0
	for _, criterion := range project.Criteria {
		ok := false
		if checker, found := s.checkers[criterion.Kind]; found {
			ok = checker.Check(criterion, snapshot)
		} else {
			s.logger.WithFields(map[string]interface{}{
				"project": project.ID,
				"kind":    string(criterion.Kind),
			}).Warn("unknown criterion kind")
		}
		if ok {
			met++
		}
		report.Criteria = append(report.Criteria, types.CriterionResult{
			Description: criterion.Description,
			Met:         ok,
		})
	}

	if total := len(project.Criteria); total > 0 {
		report.Score = int(math.Round(100 * float64(met) / float64(total)))
	}
	return report
}

// EvaluateAll scores every project in input order
func (s *EligibilityScorer) EvaluateAll(projects []types.Project, snapshot types.ActivitySnapshot) []types.EligibilityReport {
	reports := make([]types.EligibilityReport, 0, len(projects))
	for _, p := range projects {
		reports = append(reports, s.Evaluate(p, snapshot))
	}
	return reports
}

// BuildActivitySnapshot derives the criteria snapshot from a wallet's insights
func BuildActivitySnapshot(insights types.ProtocolInsights) types.ActivitySnapshot {
	snap := types.ActivitySnapshot{
		Protocols:  make(map[string]int),
		Categories: make(map[types.Category]int),
		Chains:     make(map[types.ChainID]int),
	}

	for _, entry := range insights.Breakdown {
		if entry.InteractionCount <= 0 {
			continue
		}
		snap.TotalInteractions += entry.InteractionCount
		snap.Protocols[strings.ToLower(entry.Protocol)] += entry.InteractionCount
		snap.Categories[entry.Category] += entry.InteractionCount
		snap.Chains[entry.ChainID] += entry.InteractionCount
	}
	snap.UniqueProtocols = len(snap.Protocols)
	snap.ActiveCategories = len(snap.Categories)

	for _, month := range insights.MonthlyActivity {
		if month.InteractionCount > 0 {
			snap.ActiveMonths++
		}
	}

	return snap
}
