package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oszuidwest/zwfm-crudread/internal/auth"
	"github.com/oszuidwest/zwfm-crudread/internal/services"
	"github.com/oszuidwest/zwfm-crudread/internal/utils"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// Read returns one page of the resource named in the route.
func (h *Handlers) Read(c *gin.Context) {
	resource := c.Param("resource")

	req, err := bindReadRequest(c)
	if err != nil {
		handleServiceError(c, err, resource)
		return
	}

	result, err := h.readSvc.Read(c.Request.Context(), resource, req)
	if err != nil {
		handleServiceError(c, err, resource)
		return
	}

	utils.Success(c, utils.PageResponse{
		Data:   result.Rows,
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
		Offset: result.Offset,
		Pages:  result.Pages(),
	})
}

// ListResources describes the resources the caller may read.
func (h *Handlers) ListResources(c *gin.Context) {
	infos := h.readSvc.Resources()

	if h.authz != nil && h.authz.Enabled() {
		role, _ := auth.ClientRole(c)
		visible := make([]services.ResourceInfo, 0, len(infos))
		for _, info := range infos {
			allowed, err := h.authz.Allowed(role, info.Name, auth.ActionRead)
			if err != nil {
				logger.Error("Permission check failed for %s: %v", info.Name, err)
				utils.ProblemInternalServer(c, "Permission check failed")
				return
			}
			if allowed {
				visible = append(visible, info)
			}
		}
		infos = visible
	}

	utils.Success(c, utils.ListResponse{Data: infos})
}
