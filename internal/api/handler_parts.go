package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"cmms-backend/internal/export"
	"cmms-backend/internal/service"
)

// maxImportSize caps uploaded import files.
const maxImportSize = 10 << 20

func (h *Handler) ListParts(c *gin.Context) {
	lowStock, ok := queryBool(c, "low_stock")
	if !ok {
		return
	}
	parts, err := h.svc.ListParts(c.Request.Context(), c.Query("search"), lowStock)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *Handler) GetPart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	part, err := h.svc.GetPart(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

// SavePart inserts or updates a part by kode_barang.
func (h *Handler) SavePart(c *gin.Context) {
	var req service.PartInput
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.svc.SavePart(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *Handler) DeletePart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePart(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.StockInput
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.svc.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) PartTransactions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.svc.GetPart(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	txns, err := h.svc.ListStockTxns(c.Request.Context(), service.StockTxnQuery{PartID: &id})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *Handler) ListStockTransactions(c *gin.Context) {
	partID, ok := queryID(c, "part_id")
	if !ok {
		return
	}
	woID, ok := queryID(c, "work_order_id")
	if !ok {
		return
	}
	txns, err := h.svc.ListStockTxns(c.Request.Context(), service.StockTxnQuery{PartID: partID, WorkOrderID: woID})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// ImportParts reads a CSV or Excel upload in the multipart field "file".
func (h *Handler) ImportParts(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	var table export.Table
	switch ext := strings.ToLower(filepath.Ext(fh.Filename)); ext {
	case ".csv":
		table, err = export.ReadCSV(f, "spare_parts")
	case ".xlsx":
		table, err = export.ReadXLSX(f, "spare_parts")
	default:
		err = fmt.Errorf("unsupported file type %q, use .csv or .xlsx", ext)
	}
	if err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.svc.ImportParts(c.Request.Context(), table)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
