package models

import "fmt"

// TreeNodeType represents the type of tree node
type TreeNodeType string

const (
	TreeNodeTypeRoot       TreeNodeType = "root"
	TreeNodeTypeRepository TreeNodeType = "repository"
	TreeNodeTypeTable      TreeNodeType = "table"
)

// TreeNode represents a node in the roster tree
type TreeNode struct {
	ID         string       // e.g. "repo:7", "table:7.12"
	Type       TreeNodeType // Type of node
	Label      string       // Display text
	Parent     *TreeNode    // Parent node (nil for root)
	Children   []*TreeNode  // Child nodes
	Expanded   bool         // Whether node is expanded
	Selectable bool         // Whether node can be selected
	Active     bool         // Whether node is the active repository or table
	RefID      ID           // Gateway id of the repository or table
}

// NewTreeNode creates a new tree node
func NewTreeNode(id string, nodeType TreeNodeType, label string) *TreeNode {
	return &TreeNode{
		ID:         id,
		Type:       nodeType,
		Label:      label,
		Children:   make([]*TreeNode, 0),
		Selectable: nodeType != TreeNodeTypeRoot,
	}
}

// AddChild adds a child node to this node
func (n *TreeNode) AddChild(child *TreeNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Toggle toggles the expanded state of a repository node
func (n *TreeNode) Toggle() {
	if n.Type != TreeNodeTypeRepository {
		return
	}
	n.Expanded = !n.Expanded
}

// Flatten returns the visible nodes in display order
func (n *TreeNode) Flatten() []*TreeNode {
	result := make([]*TreeNode, 0)
	if n.Type != TreeNodeTypeRoot {
		result = append(result, n)
	}
	if n.Expanded || n.Type == TreeNodeTypeRoot {
		for _, child := range n.Children {
			result = append(result, child.Flatten()...)
		}
	}
	return result
}

// FindByID finds a node by ID in the tree (depth-first search)
func (n *TreeNode) FindByID(id string) *TreeNode {
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// GetPath returns the labels from the root to this node
func (n *TreeNode) GetPath() []string {
	path := make([]string, 0)
	for current := n; current != nil; current = current.Parent {
		if current.Type != TreeNodeTypeRoot {
			path = append([]string{current.Label}, path...)
		}
	}
	return path
}

// GetDepth returns the depth of this node in the tree (root = 0)
func (n *TreeNode) GetDepth() int {
	depth := 0
	for current := n.Parent; current != nil; current = current.Parent {
		depth++
	}
	return depth
}

// RepositoryID returns the repository a node belongs to
func (n *TreeNode) RepositoryID() ID {
	for current := n; current != nil; current = current.Parent {
		if current.Type == TreeNodeTypeRepository {
			return current.RefID
		}
	}
	return ""
}

// RepositoryNodeID returns the tree id of a repository node
func RepositoryNodeID(repoID ID) string {
	return fmt.Sprintf("repo:%s", repoID)
}

// TableNodeID returns the tree id of a table node
func TableNodeID(repoID, tableID ID) string {
	return fmt.Sprintf("table:%s.%s", repoID, tableID)
}

// BuildRosterTree builds the repository/table tree.
// The active repository is expanded and the active nodes are marked.
func BuildRosterTree(repos []Repository, activeRepo, activeTable ID) *TreeNode {
	root := NewTreeNode("root", TreeNodeTypeRoot, "Repositories")
	root.Expanded = true

	for _, repo := range repos {
		repoNode := NewTreeNode(RepositoryNodeID(repo.ID), TreeNodeTypeRepository, repo.Name)
		repoNode.RefID = repo.ID
		repoNode.Active = repo.ID == activeRepo
		repoNode.Expanded = repoNode.Active

		for _, table := range repo.Tables {
			tableNode := NewTreeNode(TableNodeID(repo.ID, table.ID), TreeNodeTypeTable, table.Name)
			tableNode.RefID = table.ID
			tableNode.Active = repoNode.Active && table.ID == activeTable
			repoNode.AddChild(tableNode)
		}

		root.AddChild(repoNode)
	}

	return root
}

