package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

func TestParseSearchQuery_Simple(t *testing.T) {
	q := ParseSearchQuery("plan")

	if q.Pattern != "plan" {
		t.Errorf("expected pattern 'plan', got '%s'", q.Pattern)
	}
	if q.Negate {
		t.Error("expected Negate=false")
	}
	if q.TypeFilter != "" {
		t.Errorf("expected empty TypeFilter, got '%s'", q.TypeFilter)
	}
}

func TestParseSearchQuery_Negate(t *testing.T) {
	q := ParseSearchQuery("!test")

	if q.Pattern != "test" {
		t.Errorf("expected pattern 'test', got '%s'", q.Pattern)
	}
	if !q.Negate {
		t.Error("expected Negate=true")
	}
}

func TestParseSearchQuery_Prefixes(t *testing.T) {
	tests := []struct {
		query      string
		pattern    string
		typeFilter string
	}{
		{"t:plan", "plan", "table"},
		{"table:plan", "plan", "table"},
		{"r:qa", "qa", "repository"},
		{"repo:qa", "qa", "repository"},
		{"Repository:QA", "QA", "repository"},
		{"tab", "tab", ""},
	}

	for _, tt := range tests {
		q := ParseSearchQuery(tt.query)
		if q.Pattern != tt.pattern {
			t.Errorf("%q: expected pattern %q, got %q", tt.query, tt.pattern, q.Pattern)
		}
		if q.TypeFilter != tt.typeFilter {
			t.Errorf("%q: expected type %q, got %q", tt.query, tt.typeFilter, q.TypeFilter)
		}
	}
}

func TestParseSearchQuery_NegateWithType(t *testing.T) {
	q := ParseSearchQuery("!r:qa")

	if q.Pattern != "qa" {
		t.Errorf("expected pattern 'qa', got '%s'", q.Pattern)
	}
	if !q.Negate {
		t.Error("expected Negate=true")
	}
	if q.TypeFilter != "repository" {
		t.Errorf("expected TypeFilter 'repository', got '%s'", q.TypeFilter)
	}
}

func TestFuzzyMatch_ExactPrefix(t *testing.T) {
	match, positions := FuzzyMatch("plan", "plan_check_run")

	if !match {
		t.Error("expected match")
	}
	if len(positions) != 4 || positions[0] != 0 || positions[3] != 3 {
		t.Errorf("expected positions [0,1,2,3], got %v", positions)
	}
}

func TestFuzzyMatch_Subsequence(t *testing.T) {
	match, positions := FuzzyMatch("pcr", "plan_check_run")

	if !match {
		t.Error("expected match")
	}
	if len(positions) != 3 {
		t.Errorf("expected 3 positions, got %d", len(positions))
	}
}

func TestFuzzyMatch_NoMatch(t *testing.T) {
	if match, _ := FuzzyMatch("xyz", "plan_check_run"); match {
		t.Error("expected no match")
	}
}

func TestFuzzyMatch_CaseInsensitive(t *testing.T) {
	if match, _ := FuzzyMatch("PLAN", "plan_check_run"); !match {
		t.Error("expected case-insensitive match")
	}
}

func TestFuzzyMatch_EmptyPattern(t *testing.T) {
	match, positions := FuzzyMatch("", "anything")

	if !match {
		t.Error("empty pattern should match everything")
	}
	if len(positions) != 0 {
		t.Error("empty pattern should have no positions")
	}
}

func TestNodeMatchesType(t *testing.T) {
	table := &models.TreeNode{Type: models.TreeNodeTypeTable}
	repo := &models.TreeNode{Type: models.TreeNodeTypeRepository}

	if !NodeMatchesType(table, "table") {
		t.Error("table node should match 'table' type filter")
	}
	if NodeMatchesType(table, "repository") {
		t.Error("table node should not match 'repository' type filter")
	}
	if !NodeMatchesType(repo, "repository") {
		t.Error("repository node should match 'repository' type filter")
	}
	if !NodeMatchesType(repo, "") {
		t.Error("empty filter should match any node")
	}
	if NodeMatchesType(repo, "bogus") {
		t.Error("unknown filter should match nothing")
	}
}

func createTestTree() *models.TreeNode {
	repos := []models.Repository{
		{ID: "1", Name: "qa", Tables: []models.Table{
			{ID: "10", Name: "plan"},
			{ID: "11", Name: "plan_check_run"},
			{ID: "12", Name: "users"},
		}},
		{ID: "2", Name: "staging", Tables: []models.Table{
			{ID: "20", Name: "orders"},
		}},
	}
	// Nothing active: every repository starts collapsed.
	return models.BuildRosterTree(repos, "", "")
}

func TestFilterTree_SimpleMatch(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery("plan"))

	if len(matches) != 2 {
		t.Errorf("expected 2 matches (plan, plan_check_run), got %d", len(matches))
	}
}

func TestFilterTree_SearchesCollapsedRepositories(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery("orders"))

	if len(matches) != 1 || matches[0].Label != "orders" {
		t.Fatalf("expected orders table, got %v", matches)
	}
	if matches[0].RepositoryID() != "2" {
		t.Errorf("expected repository 2, got %s", matches[0].RepositoryID())
	}
}

func TestFilterTree_TypeFilter(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery("r:"))

	if len(matches) != 2 {
		t.Errorf("expected 2 repository matches, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Type != models.TreeNodeTypeRepository {
			t.Errorf("expected only repository nodes, got %s", m.Type)
		}
	}
}

func TestFilterTree_Negate(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery("!plan"))

	if len(matches) != 4 {
		t.Errorf("expected 4 matches (qa, users, staging, orders), got %d", len(matches))
	}
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m.Label), "plan") {
			t.Errorf("negated query should not match '%s'", m.Label)
		}
	}
}

func TestFilterTree_NegateWithType(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery("!t:plan"))

	// Repositories survive because they fail the type filter.
	for _, m := range matches {
		if m.Type == models.TreeNodeTypeTable && strings.Contains(m.Label, "plan") {
			t.Errorf("unexpected table '%s'", m.Label)
		}
	}
	if len(matches) != 4 {
		t.Errorf("expected 4 matches, got %d", len(matches))
	}
}

func TestFilterTree_EmptyQuery(t *testing.T) {
	matches := FilterTree(createTestTree(), ParseSearchQuery(""))

	if len(matches) != 6 {
		t.Errorf("expected all 6 searchable nodes, got %d", len(matches))
	}
}
