package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cmms-backend/internal/model"
	"cmms-backend/internal/service"
)

// ListPMPlans supports ?due=true for plans due today or earlier.
func (h *Handler) ListPMPlans(c *gin.Context) {
	due, ok := queryBool(c, "due")
	if !ok {
		return
	}
	assetID, ok := queryID(c, "asset_id")
	if !ok {
		return
	}
	plans, err := h.svc.ListPMPlans(c.Request.Context(), service.PMPlanQuery{AssetID: assetID, DueOnly: due})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) GetPMPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	plan, err := h.svc.GetPMPlan(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) CreatePMPlan(c *gin.Context) {
	var req service.PMPlanInput
	if !bindJSON(c, &req, false) {
		return
	}
	plan, err := h.svc.CreatePMPlan(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *Handler) UpdatePMPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.PMPlanInput
	if !bindJSON(c, &req, false) {
		return
	}
	plan, err := h.svc.UpdatePMPlan(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) DeletePMPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePMPlan(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CompletePMPlan accepts an empty body, meaning done today.
func (h *Handler) CompletePMPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.CompletePMInput
	if !bindJSON(c, &req, true) {
		return
	}
	plan, err := h.svc.CompletePMPlan(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) ListActivityReports(c *gin.Context) {
	assetID, ok := queryID(c, "asset_id")
	if !ok {
		return
	}
	reports, err := h.svc.ListActivityReports(c.Request.Context(), service.ActivityQuery{
		Type:    model.ActivityType(c.Query("type")),
		AssetID: assetID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetActivityReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.svc.GetActivityReport(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) CreateActivityReport(c *gin.Context) {
	var req service.ActivityInput
	if !bindJSON(c, &req, false) {
		return
	}
	r, err := h.svc.CreateActivityReport(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateActivityReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.ActivityInput
	if !bindJSON(c, &req, false) {
		return
	}
	r, err := h.svc.UpdateActivityReport(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteActivityReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteActivityReport(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
