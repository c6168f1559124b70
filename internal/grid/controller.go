// Package grid holds the state of the table currently on screen and
// reconciles it with the remote data gateway after every mutation.
package grid

import (
	"context"
	"log/slog"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// Gateway is the subset of the remote data gateway the grid needs
type Gateway interface {
	FetchTableData(ctx context.Context, tableID models.ID) (*models.TableData, error)
	UpdateRow(ctx context.Context, dataID models.ID, cells map[string]string) error
	CreateRow(ctx context.Context, tableID models.ID, cells map[string]string) (models.ID, error)
	DeleteRow(ctx context.Context, dataID models.ID) error
	UploadFile(ctx context.Context, tableID models.ID, path string) error
	ExportTable(ctx context.Context, tableID models.ID) ([]byte, error)
}

// Notifier receives user-visible outcomes
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Options configures a Controller
type Options struct {
	// ImmutableColumns can never be edited
	ImmutableColumns []string

	// SaveConcurrency bounds concurrent create calls when saving staged rows.
	// Values below 1 mean sequential.
	SaveConcurrency int

	// DownloadDir receives exported tables
	DownloadDir string

	Logger *slog.Logger
}

// DefaultImmutableColumns are never editable unless configured otherwise
var DefaultImmutableColumns = []string{"data_id", "ROW_ID"}

// Controller owns the state of one displayed table.
// State is only written from Update and the exported mutators, which
// bubbletea runs on a single goroutine.
type Controller struct {
	gw     Gateway
	notify Notifier
	opts   Options
	logger *slog.Logger

	tableID  models.ID
	headers  []string
	rows     []models.Row
	staged   []models.StagedRow
	statuses map[models.CellKey]models.CellStatus
	edit     *editState
	menu     *MenuTarget

	loading bool
	loadErr error

	// seq is the sequence number of the latest fetch issued
	seq uint64

	saving           bool
	refreshAfterSave bool
}

type editState struct {
	DataID     models.ID
	Column     string
	Original   string
	PrevStatus models.CellStatus
}

// MenuTarget is the row a context menu was opened on
type MenuTarget struct {
	Staged bool
	Index  int
	DataID models.ID
	Key    string
	X, Y   int
}

// NewController creates a grid controller
func NewController(gw Gateway, notify Notifier, opts Options) *Controller {
	if opts.ImmutableColumns == nil {
		opts.ImmutableColumns = DefaultImmutableColumns
	}
	if opts.SaveConcurrency < 1 {
		opts.SaveConcurrency = 1
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		gw:       gw,
		notify:   notify,
		opts:     opts,
		logger:   logger.With("component", "grid"),
		statuses: make(map[models.CellKey]models.CellStatus),
	}
}

// SetOptions replaces the display and behavior options, e.g. after a config reload
func (c *Controller) SetOptions(opts Options) {
	if opts.ImmutableColumns == nil {
		opts.ImmutableColumns = DefaultImmutableColumns
	}
	if opts.SaveConcurrency < 1 {
		opts.SaveConcurrency = 1
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = c.opts.DownloadDir
	}
	if opts.Logger == nil {
		opts.Logger = c.opts.Logger
	}
	c.opts = opts
}

// TableID returns the table on screen, or "" when none is selected
func (c *Controller) TableID() models.ID { return c.tableID }

// Headers returns the ordered column names
func (c *Controller) Headers() []string { return c.headers }

// Rows returns the persisted rows
func (c *Controller) Rows() []models.Row { return c.rows }

// Staged returns the staged rows
func (c *Controller) Staged() []models.StagedRow { return c.staged }

// Loading reports whether the initial fetch of the table is in flight
func (c *Controller) Loading() bool { return c.loading }

// LoadErr returns the error of the last failed fetch
func (c *Controller) LoadErr() error { return c.loadErr }

// Saving reports whether a staged-row batch is in flight
func (c *Controller) Saving() bool { return c.saving }

// IsImmutable reports whether a column can never be edited
func (c *Controller) IsImmutable(column string) bool {
	return slices.Contains(c.opts.ImmutableColumns, column)
}

// Status returns the persistence status of a persisted cell
func (c *Controller) Status(dataID models.ID, column string) models.CellStatus {
	return c.statuses[models.CellKey{DataID: dataID, Column: column}]
}

// Editing returns the row index and column of the cell in edit mode
func (c *Controller) Editing() (row int, column string, ok bool) {
	if c.edit == nil {
		return -1, "", false
	}
	idx := c.rowIndex(c.edit.DataID)
	if idx < 0 {
		return -1, "", false
	}
	return idx, c.edit.Column, true
}

// Menu returns the current context-menu target
func (c *Controller) Menu() (MenuTarget, bool) {
	if c.menu == nil {
		return MenuTarget{}, false
	}
	return *c.menu, true
}

// Update applies the result of an asynchronous operation
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dataLoadedMsg:
		return c.handleDataLoaded(msg)
	case cellSavedMsg:
		return c.handleCellSaved(msg)
	case rowsSavedMsg:
		return c.handleRowsSaved(msg)
	case rowDeletedMsg:
		return c.handleRowDeleted(msg)
	case exportedMsg:
		return c.handleExported(msg)
	case importedMsg:
		return c.handleImported(msg)
	}
	return nil
}

// Handles reports whether msg is a grid result message
func Handles(msg tea.Msg) bool {
	switch msg.(type) {
	case dataLoadedMsg, cellSavedMsg, rowsSavedMsg, rowDeletedMsg, exportedMsg, importedMsg:
		return true
	}
	return false
}

func (c *Controller) rowIndex(dataID models.ID) int {
	for i := range c.rows {
		if c.rows[i].DataID == dataID {
			return i
		}
	}
	return -1
}

func (c *Controller) stagedIndex(key string) int {
	for i := range c.staged {
		if c.staged[i].Key == key {
			return i
		}
	}
	return -1
}

func (c *Controller) setStatus(key models.CellKey, status models.CellStatus) {
	if status == models.CellClean {
		delete(c.statuses, key)
		return
	}
	c.statuses[key] = status
}
