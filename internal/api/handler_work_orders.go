package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cmms-backend/internal/model"
	"cmms-backend/internal/service"
)

func (h *Handler) ListWorkOrders(c *gin.Context) {
	assetID, ok := queryID(c, "asset_id")
	if !ok {
		return
	}
	wos, err := h.svc.ListWorkOrders(c.Request.Context(), service.WorkOrderQuery{
		Status:  model.WorkOrderStatus(c.Query("status")),
		Type:    model.WorkOrderType(c.Query("type")),
		AssetID: assetID,
		Search:  c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wos)
}

func (h *Handler) NextWONumber(c *gin.Context) {
	next, err := h.svc.NextWONumber(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wo_no": next})
}

func (h *Handler) GetWorkOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	wo, err := h.svc.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var req service.CreateWorkOrderInput
	if !bindJSON(c, &req, false) {
		return
	}
	wo, err := h.svc.CreateWorkOrder(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

func (h *Handler) UpdateWorkOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateWorkOrderInput
	if !bindJSON(c, &req, false) {
		return
	}
	wo, err := h.svc.UpdateWorkOrder(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteWorkOrder(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) WorkOrderParts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	parts, err := h.svc.WorkOrderParts(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

// ConsumePart books a spare part against the work order.
func (h *Handler) ConsumePart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.ConsumePartInput
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.svc.ConsumePart(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
