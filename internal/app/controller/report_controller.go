package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type ReportController struct {
	reportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// ExportOrders streams the matching orders as an xlsx download (admin)
// GET /api/v1/admin/orders/export
func (ctrl *ReportController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.OrderFilter{
		Status: c.Query("status"),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	data, err := ctrl.reportService.ExportOrdersXLSX(filter)
	if err != nil {
		log.Error("Failed to export orders", err)
		apierrors.InternalError(c, "failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
