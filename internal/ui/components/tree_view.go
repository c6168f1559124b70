package components

// TreeView renders the repository/table roster with keyboard navigation,
// expand/collapse, viewport scrolling and an incremental search filter.
//
// Usage:
//
//	root := models.BuildRosterTree(repos, activeRepo, activeTable)
//	treeView := components.NewTreeView(root, theme)
//
//	// In your Update method:
//	treeView, cmd := treeView.Update(msg)
//
//	// In your View method:
//	content := treeView.View()

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ZoneRosterNodePrefix prefixes the mouse zone of every rendered roster node
const ZoneRosterNodePrefix = "roster-node:"

// SearchState is the state of the roster search bar
type SearchState int

const (
	SearchOff SearchState = iota
	SearchInputting
	SearchFilterActive
)

// TreeView represents the roster tree component
type TreeView struct {
	Root         *models.TreeNode
	CursorIndex  int
	Width        int
	Height       int
	Theme        theme.Theme
	ScrollOffset int

	SearchState    SearchState
	SearchQuery    string
	FilteredNodes  []*models.TreeNode
	MatchPositions map[*models.TreeNode][]int
}

// TreeNodeSelectedMsg is sent when a node is selected (Enter key or click)
type TreeNodeSelectedMsg struct {
	Node *models.TreeNode
}

// TreeNodeExpandedMsg is sent when a repository node is expanded/collapsed
type TreeNodeExpandedMsg struct {
	Node     *models.TreeNode
	Expanded bool
}

// NewTreeView creates a new tree view component
func NewTreeView(root *models.TreeNode, theme theme.Theme) *TreeView {
	return &TreeView{
		Root:   root,
		Width:  40,
		Height: 20,
		Theme:  theme,
	}
}

// SetRoot replaces the tree, keeping the cursor on the same node id when it
// still exists and re-running an active search.
func (tv *TreeView) SetRoot(root *models.TreeNode) {
	var currentID string
	if node := tv.GetCurrentNode(); node != nil {
		currentID = node.ID
	}

	tv.Root = root
	if tv.SearchState != SearchOff {
		tv.applyFilter()
	}
	if currentID == "" || !tv.SetCursorToNode(currentID) {
		tv.clampCursor(len(tv.visibleNodes()))
	}
}

// Searching reports whether the search bar is capturing keystrokes
func (tv *TreeView) Searching() bool {
	return tv.SearchState == SearchInputting
}

// visibleNodes returns either the search results or the flattened tree
func (tv *TreeView) visibleNodes() []*models.TreeNode {
	if tv.SearchState != SearchOff && tv.FilteredNodes != nil {
		return tv.FilteredNodes
	}
	if tv.Root == nil {
		return nil
	}
	return tv.Root.Flatten()
}

// View renders the tree as a string
func (tv *TreeView) View() string {
	searchBar := ""
	if tv.SearchState != SearchOff {
		searchBar = tv.renderSearchBar()
	}

	nodes := tv.visibleNodes()
	if len(nodes) == 0 {
		if searchBar != "" {
			return searchBar + "\n" + tv.styledEmpty("No matches")
		}
		return tv.emptyState()
	}
	tv.clampCursor(len(nodes))

	// Borders and title take 4 lines.
	viewHeight := tv.Height - 4 - tv.getSearchBarHeight()
	if viewHeight < 1 {
		viewHeight = 1
	}
	tv.adjustScrollOffset(len(nodes), viewHeight)

	startIdx := tv.ScrollOffset
	endIdx := min(tv.ScrollOffset+viewHeight, len(nodes))

	lines := make([]string, 0, viewHeight+1)
	if searchBar != "" {
		lines = append(lines, searchBar)
	}
	for i := startIdx; i < endIdx; i++ {
		line := tv.renderNode(nodes[i], i == tv.CursorIndex)
		lines = append(lines, zone.Mark(ZoneRosterNodePrefix+nodes[i].ID, line))
	}
	if startIdx > 0 || endIdx < len(nodes) {
		lines = append(lines, tv.scrollIndicator(startIdx, endIdx, len(nodes)))
	}

	return strings.Join(lines, "\n")
}

// Update handles keyboard input for tree navigation and search
func (tv *TreeView) Update(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	if tv.SearchState == SearchInputting {
		return tv.updateSearchInput(msg)
	}

	switch msg.String() {
	case "/":
		tv.SearchState = SearchInputting
		tv.applyFilter()
		return tv, nil
	case "esc":
		if tv.SearchState == SearchFilterActive {
			tv.clearSearch()
		}
		return tv, nil
	}

	nodes := tv.visibleNodes()
	if len(nodes) == 0 {
		return tv, nil
	}
	tv.clampCursor(len(nodes))

	var cmd tea.Cmd

	switch msg.String() {
	case "up", "k":
		if tv.CursorIndex > 0 {
			tv.CursorIndex--
		}

	case "down", "j":
		if tv.CursorIndex < len(nodes)-1 {
			tv.CursorIndex++
		}

	case "g":
		tv.CursorIndex = 0
		tv.ScrollOffset = 0

	case "G":
		tv.CursorIndex = len(nodes) - 1

	case "right", "l", " ":
		if tv.SearchState != SearchOff {
			break
		}
		node := nodes[tv.CursorIndex]
		wasExpanded := node.Expanded
		node.Toggle()
		if node.Expanded != wasExpanded {
			cmd = expandedCmd(node)
		}

	case "left", "h":
		if tv.SearchState != SearchOff {
			break
		}
		node := nodes[tv.CursorIndex]
		if node.Expanded {
			node.Toggle()
			cmd = expandedCmd(node)
		} else if node.Parent != nil && node.Parent.Type != models.TreeNodeTypeRoot {
			if idx := tv.findNodeIndex(nodes, node.Parent); idx >= 0 {
				tv.CursorIndex = idx
			}
		}

	case "enter":
		node := nodes[tv.CursorIndex]
		if node.Selectable {
			cmd = selectedCmd(node)
		}
	}

	return tv, cmd
}

func (tv *TreeView) updateSearchInput(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		tv.clearSearch()
	case tea.KeyEnter:
		if tv.SearchQuery == "" {
			tv.clearSearch()
		} else {
			tv.SearchState = SearchFilterActive
		}
	case tea.KeyBackspace:
		if tv.SearchQuery != "" {
			runes := []rune(tv.SearchQuery)
			tv.SearchQuery = string(runes[:len(runes)-1])
			tv.applyFilter()
		}
	case tea.KeyUp, tea.KeyCtrlP:
		if tv.CursorIndex > 0 {
			tv.CursorIndex--
		}
	case tea.KeyDown, tea.KeyCtrlN:
		if tv.CursorIndex < len(tv.visibleNodes())-1 {
			tv.CursorIndex++
		}
	case tea.KeyRunes, tea.KeySpace:
		tv.SearchQuery += string(msg.Runes)
		tv.applyFilter()
	}
	return tv, nil
}

func (tv *TreeView) applyFilter() {
	query := ParseSearchQuery(tv.SearchQuery)
	tv.FilteredNodes = FilterTree(tv.Root, query)
	if tv.FilteredNodes == nil {
		tv.FilteredNodes = []*models.TreeNode{}
	}
	tv.MatchPositions = make(map[*models.TreeNode][]int, len(tv.FilteredNodes))
	if query.Pattern != "" && !query.Negate {
		for _, node := range tv.FilteredNodes {
			if ok, positions := FuzzyMatch(query.Pattern, node.Label); ok {
				tv.MatchPositions[node] = positions
			}
		}
	}
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
}

func (tv *TreeView) clearSearch() {
	var currentID string
	if node := tv.GetCurrentNode(); node != nil {
		currentID = node.ID
	}

	tv.SearchState = SearchOff
	tv.SearchQuery = ""
	tv.FilteredNodes = nil
	tv.MatchPositions = nil
	tv.CursorIndex = 0
	tv.ScrollOffset = 0

	if currentID != "" {
		tv.revealNode(currentID)
	}
}

// revealNode expands the parents of a node and moves the cursor onto it
func (tv *TreeView) revealNode(nodeID string) {
	if tv.Root == nil {
		return
	}
	node := tv.Root.FindByID(nodeID)
	if node == nil {
		return
	}
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == models.TreeNodeTypeRepository {
			p.Expanded = true
		}
	}
	tv.SetCursorToNode(nodeID)
}

// getSearchBarHeight returns the number of lines the search bar occupies
func (tv *TreeView) getSearchBarHeight() int {
	if tv.SearchState == SearchOff {
		return 0
	}
	// Border, input, hints, border.
	return 4
}

func (tv *TreeView) renderSearchBar() string {
	query := ParseSearchQuery(tv.SearchQuery)

	var input strings.Builder
	input.WriteString("🔍 ")
	if query.TypeFilter != "" {
		tag := lipgloss.NewStyle().
			Foreground(tv.Theme.Background).
			Background(tv.Theme.TableIcon).
			Padding(0, 1)
		label := "Table"
		if query.TypeFilter == "repository" {
			label = "Repository"
		}
		input.WriteString(tag.Render(label) + " ")
	}
	if query.Negate {
		input.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Error).Render("!"))
	}
	input.WriteString(query.Pattern)
	if tv.SearchState == SearchInputting {
		input.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Cursor).Render("▏"))
	}

	hintStyle := lipgloss.NewStyle().Foreground(tv.Theme.Metadata)
	hints := "r: repo  t: table  !: not"
	if tv.SearchState == SearchFilterActive {
		hints = fmt.Sprintf("%d found  / edit  Esc clear", len(tv.FilteredNodes))
	}

	borderColor := tv.Theme.Border
	if tv.SearchState == SearchInputting {
		borderColor = tv.Theme.BorderFocused
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(max(tv.Width-4, 10))

	return box.Render(input.String() + "\n" + hintStyle.Render(hints))
}

// renderNode renders a single tree node with appropriate styling
func (tv *TreeView) renderNode(node *models.TreeNode, selected bool) string {
	// Root is never rendered; search results are shown flat.
	depth := max(node.GetDepth()-1, 0)
	if tv.SearchState != SearchOff {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)

	content := fmt.Sprintf("%s%s %s", indent, tv.getNodeIcon(node), tv.buildNodeLabel(node))

	maxWidth := max(tv.Width-2, 1)
	content = ansi.Truncate(content, maxWidth, "…")

	style := lipgloss.NewStyle().Foreground(tv.Theme.Foreground).Width(maxWidth)
	if selected {
		style = style.Background(tv.Theme.Selection).Bold(true)
	}
	return style.Render(content)
}

// getNodeIcon returns the appropriate icon for a node
func (tv *TreeView) getNodeIcon(node *models.TreeNode) string {
	if node.Type == models.TreeNodeTypeTable {
		return lipgloss.NewStyle().Foreground(tv.Theme.TableIcon).Render("▦")
	}
	if node.Expanded {
		return "▾"
	}
	return "▸"
}

// buildNodeLabel builds the display label for a node, including metadata
func (tv *TreeView) buildNodeLabel(node *models.TreeNode) string {
	label := tv.highlightMatches(node)
	dim := lipgloss.NewStyle().Foreground(tv.Theme.Metadata)

	switch node.Type {
	case models.TreeNodeTypeRepository:
		color := tv.Theme.Foreground
		if node.Active {
			color = tv.Theme.RepositoryActive
		}
		label = lipgloss.NewStyle().Foreground(color).Bold(node.Active).Render(label)
		if len(node.Children) == 0 {
			label += " " + dim.Render("(empty)")
		} else {
			label += " " + dim.Render(fmt.Sprintf("(%d)", len(node.Children)))
		}

	case models.TreeNodeTypeTable:
		if node.Active {
			label = lipgloss.NewStyle().Foreground(tv.Theme.TableActive).Bold(true).Render(label) +
				" " + lipgloss.NewStyle().Foreground(tv.Theme.Success).Render("●")
		}
		if tv.SearchState != SearchOff && node.Parent != nil {
			label += " " + dim.Render("("+node.Parent.Label+")")
		}
	}

	return label
}

func (tv *TreeView) highlightMatches(node *models.TreeNode) string {
	positions, ok := tv.MatchPositions[node]
	if !ok || len(positions) == 0 {
		return node.Label
	}
	matched := make(map[int]bool, len(positions))
	for _, p := range positions {
		matched[p] = true
	}
	hl := lipgloss.NewStyle().Foreground(tv.Theme.Warning).Bold(true).Underline(true)

	var b strings.Builder
	for i, r := range node.Label {
		if matched[i] {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// adjustScrollOffset adjusts the scroll offset to keep the cursor visible
func (tv *TreeView) adjustScrollOffset(totalNodes, viewHeight int) {
	if tv.CursorIndex < tv.ScrollOffset {
		tv.ScrollOffset = tv.CursorIndex
	}
	if tv.CursorIndex >= tv.ScrollOffset+viewHeight {
		tv.ScrollOffset = tv.CursorIndex - viewHeight + 1
	}
	maxScroll := max(totalNodes-viewHeight, 0)
	tv.ScrollOffset = min(max(tv.ScrollOffset, 0), maxScroll)
}

func (tv *TreeView) clampCursor(total int) {
	if tv.CursorIndex >= total {
		tv.CursorIndex = total - 1
	}
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}
}

func (tv *TreeView) scrollIndicator(startIdx, endIdx, total int) string {
	var parts []string
	if startIdx > 0 {
		parts = append(parts, fmt.Sprintf("↑ %d", startIdx))
	}
	if endIdx < total {
		parts = append(parts, fmt.Sprintf("↓ %d", total-endIdx))
	}
	return lipgloss.NewStyle().Foreground(tv.Theme.Info).Render(strings.Join(parts, "  "))
}

// emptyState returns the empty state view
func (tv *TreeView) emptyState() string {
	return tv.styledEmpty("No repositories\nPress n to create one")
}

func (tv *TreeView) styledEmpty(text string) string {
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Metadata).
		Italic(true).
		Width(max(tv.Width-2, 1)).
		Align(lipgloss.Center).
		Render(text)
}

// findNodeIndex finds the index of a node in the visible list
func (tv *TreeView) findNodeIndex(nodes []*models.TreeNode, target *models.TreeNode) int {
	for i, node := range nodes {
		if node == target {
			return i
		}
	}
	return -1
}

// HandleClick returns the node under a left click, moving the cursor onto it
func (tv *TreeView) HandleClick(msg tea.MouseMsg) (*models.TreeNode, bool) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return nil, false
	}
	for i, node := range tv.visibleNodes() {
		if zone.Get(ZoneRosterNodePrefix + node.ID).InBounds(msg) {
			tv.CursorIndex = i
			return node, true
		}
	}
	return nil, false
}

// GetCurrentNode returns the node under the cursor
func (tv *TreeView) GetCurrentNode() *models.TreeNode {
	nodes := tv.visibleNodes()
	if tv.CursorIndex < 0 || tv.CursorIndex >= len(nodes) {
		return nil
	}
	return nodes[tv.CursorIndex]
}

// SetCursorToNode sets the cursor to a specific node (by ID)
func (tv *TreeView) SetCursorToNode(nodeID string) bool {
	for i, node := range tv.visibleNodes() {
		if node.ID == nodeID {
			tv.CursorIndex = i
			return true
		}
	}
	return false
}

func selectedCmd(node *models.TreeNode) tea.Cmd {
	return func() tea.Msg { return TreeNodeSelectedMsg{Node: node} }
}

func expandedCmd(node *models.TreeNode) tea.Cmd {
	expanded := node.Expanded
	return func() tea.Msg { return TreeNodeExpandedMsg{Node: node, Expanded: expanded} }
}
