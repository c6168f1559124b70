package components

import (
	"strings"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// SearchQuery represents a parsed roster search query
type SearchQuery struct {
	Pattern    string // The search pattern (after removing prefix/type)
	Negate     bool   // True if query starts with !
	TypeFilter string // Normalized type filter ("repository" or "table")
}

// Type prefixes, longest first so "repo:" wins over "r:".
var typePrefixes = []struct {
	prefix   string
	typeName string
}{
	{"repository:", "repository"},
	{"table:", "table"},
	{"repo:", "repository"},
	{"r:", "repository"},
	{"t:", "table"},
}

// ParseSearchQuery parses a search query string into structured form
// Examples:
//   - "plan" → {Pattern: "plan"}
//   - "!test" → {Pattern: "test", Negate: true}
//   - "t:plan" → {Pattern: "plan", TypeFilter: "table"}
//   - "!r:qa" → {Pattern: "qa", Negate: true, TypeFilter: "repository"}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	queryLower := strings.ToLower(query)
	for _, p := range typePrefixes {
		if strings.HasPrefix(queryLower, p.prefix) {
			q.TypeFilter = p.typeName
			query = query[len(p.prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs case-insensitive fuzzy subsequence matching.
// It returns whether the pattern matches and the byte positions of the
// matched characters in target.
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

var nodeTypeMapping = map[string]models.TreeNodeType{
	"repository": models.TreeNodeTypeRepository,
	"table":      models.TreeNodeTypeTable,
}

// NodeMatchesType checks if a node matches the given type filter.
// An empty filter matches all nodes.
func NodeMatchesType(node *models.TreeNode, typeFilter string) bool {
	if typeFilter == "" {
		return true
	}
	nodeType, ok := nodeTypeMapping[typeFilter]
	return ok && node.Type == nodeType
}

func isSearchableNode(node *models.TreeNode) bool {
	return node.Type == models.TreeNodeTypeRepository || node.Type == models.TreeNodeTypeTable
}

// FilterTree returns the repository and table nodes matching query as a
// flat list in tree order. Collapsed repositories are searched too.
func FilterTree(root *models.TreeNode, query SearchQuery) []*models.TreeNode {
	var matches []*models.TreeNode

	var traverse func(node *models.TreeNode)
	traverse = func(node *models.TreeNode) {
		if node == nil {
			return
		}

		if isSearchableNode(node) {
			typeMatches := NodeMatchesType(node, query.TypeFilter)
			patternMatches := true
			if query.Pattern != "" {
				patternMatches, _ = FuzzyMatch(query.Pattern, node.Label)
			}

			include := typeMatches && patternMatches
			if query.Negate {
				// "!t:x" keeps tables not matching x and every other type.
				include = !typeMatches || !patternMatches
			}
			if include {
				matches = append(matches, node)
			}
		}

		for _, child := range node.Children {
			traverse(child)
		}
	}

	traverse(root)
	return matches
}
