package grid

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/export"
	"github.com/rebeliceyang/lazytdm/internal/models"
)

type exportedMsg struct {
	TableID models.ID
	Path    string
	Err     error
}

type importedMsg struct {
	TableID models.ID
	Path    string
	Err     error
}

// Export downloads the current table into the download directory as <tableID>.xlsx
func (c *Controller) Export() tea.Cmd {
	if c.tableID.IsZero() {
		c.notify.Error("No table selected")
		return nil
	}

	tableID := c.tableID
	dir := c.opts.DownloadDir
	gw := c.gw
	return func() tea.Msg {
		blob, err := gw.ExportTable(context.Background(), tableID)
		if err != nil {
			return exportedMsg{TableID: tableID, Err: err}
		}
		path, err := export.WriteDownload(dir, tableID, blob)
		return exportedMsg{TableID: tableID, Path: path, Err: err}
	}
}

func (c *Controller) handleExported(msg exportedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to download table", "table_id", msg.TableID, "error", msg.Err)
		c.notify.Error("Failed to download file")
		return nil
	}
	c.logger.Info("table downloaded", "table_id", msg.TableID, "path", msg.Path)
	c.notify.Success("File downloaded successfully")
	return nil
}

// Import uploads a spreadsheet file into the current table
func (c *Controller) Import(path string) tea.Cmd {
	if c.tableID.IsZero() {
		c.notify.Error("No table selected")
		return nil
	}
	path = strings.TrimSpace(path)
	if path == "" {
		c.notify.Error("Please select a file to upload")
		return nil
	}

	tableID := c.tableID
	gw := c.gw
	return func() tea.Msg {
		err := gw.UploadFile(context.Background(), tableID, path)
		return importedMsg{TableID: tableID, Path: path, Err: err}
	}
}

func (c *Controller) handleImported(msg importedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to upload file", "table_id", msg.TableID, "path", msg.Path, "error", msg.Err)
		c.notify.Error("Failed to upload file")
		return nil
	}

	c.notify.Success("File uploaded successfully")
	if msg.TableID != c.tableID {
		return nil
	}
	return c.Refresh()
}

// SnapshotCSV writes the persisted rows on screen to a local CSV file
func (c *Controller) SnapshotCSV(path string) error {
	if err := c.snapshot(path, export.ExportToCSV); err != nil {
		return err
	}
	c.notify.Success(fmt.Sprintf("Snapshot saved to %s", path))
	return nil
}

// SnapshotJSON writes the persisted rows on screen to a local JSON file
func (c *Controller) SnapshotJSON(path string) error {
	if err := c.snapshot(path, export.ExportToJSON); err != nil {
		return err
	}
	c.notify.Success(fmt.Sprintf("Snapshot saved to %s", path))
	return nil
}

func (c *Controller) snapshot(path string, write func([]string, []models.Row, string) error) error {
	if c.tableID.IsZero() {
		c.notify.Error("No table selected")
		return fmt.Errorf("no table selected")
	}
	if err := write(c.headers, c.rows, path); err != nil {
		c.logger.Error("failed to write snapshot", "path", path, "error", err)
		c.notify.Error("Failed to save snapshot")
		return err
	}
	return nil
}
