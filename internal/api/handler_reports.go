package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cmms-backend/internal/export"
	"cmms-backend/internal/model"
)

// GetMeta lists the enumerations clients build their forms from.
func (h *Handler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"work_order_types":    model.WorkOrderTypes,
		"work_order_statuses": model.WorkOrderStatuses,
		"priorities":          model.Priorities,
		"txn_types":           model.TxnTypes,
		"activity_types":      model.ActivityTypes,
		"tables":              export.TableNames,
		"export_formats":      []export.Format{export.FormatCSV, export.FormatXLSX, export.FormatPDF},
		"timezone":            h.svc.Location().String(),
	})
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) AssetTotals(c *gin.Context) {
	totals, err := h.svc.AssetTotals(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Export downloads a whole table as CSV, Excel or PDF.
func (h *Handler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err)
		return
	}
	table, err := h.svc.Table(c.Request.Context(), c.Param("table"))
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now().In(h.svc.Location())
	var buf bytes.Buffer
	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, table)
	case export.FormatPDF:
		err = export.WritePDF(&buf, table, "Table: "+table.Name, now)
	default:
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		h.fail(c, fmt.Errorf("failed to render %s export: %w", format, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, table.Filename(format, now)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// CreateBackup snapshots one table into the data directory.
func (h *Handler) CreateBackup(c *gin.Context) {
	table, err := h.svc.Table(c.Request.Context(), c.Param("table"))
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.backups.Backup(c.Request.Context(), table)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListBackups(c *gin.Context) {
	files, err := h.backups.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) DownloadBackup(c *gin.Context) {
	path, err := h.backups.Path(c.Param("file"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.FileAttachment(path, c.Param("file"))
}

// SendDigest builds the digest now and queues it.
func (h *Handler) SendDigest(c *gin.Context) {
	if h.digest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications are disabled"})
		return
	}
	d, err := h.digest.RunOnce(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"queued":           !d.Empty(),
		"overdue_pm_plans": len(d.OverduePlans),
		"open_work_orders": len(d.OpenWorkOrders),
		"low_stock_parts":  len(d.LowStockParts),
	})
}
