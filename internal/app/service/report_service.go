package service

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

// reportPageSize bounds how many orders one export pulls per repository call
const reportPageSize = 100

type ReportService interface {
	ExportOrdersXLSX(filter repository.OrderFilter) ([]byte, error)
}

type reportService struct {
	orderRepo repository.OrderRepository
}

func NewReportService(orderRepo repository.OrderRepository) ReportService {
	return &reportService{orderRepo: orderRepo}
}

// ExportOrdersXLSX renders the matching orders as a spreadsheet, one row per
// order, for admin bookkeeping.
func (s *reportService) ExportOrdersXLSX(filter repository.OrderFilter) ([]byte, error) {
	logger.Info("Exporting orders to spreadsheet", map[string]interface{}{
		"status": filter.Status,
	})

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{
		"Order Number", "Date", "Customer", "Email", "Status", "Payment Status",
		"Payment Method", "Items", "Subtotal", "Tax", "Shipping", "Total",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	filter.PageSize = reportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		orders, total, err := s.orderRepo.FindAll(filter)
		if err != nil {
			return nil, err
		}

		for _, order := range orders {
			itemCount := 0
			for _, item := range order.OrderItems {
				itemCount += item.Quantity
			}

			values := []interface{}{
				order.OrderNumber,
				order.CreatedAt.Format("2006-01-02 15:04"),
				order.User.Name,
				order.User.Email,
				string(order.Status),
				string(order.PaymentStatus),
				order.PaymentMethod,
				itemCount,
				order.Subtotal.InexactFloat64(),
				order.Tax.InexactFloat64(),
				order.ShippingFee.InexactFloat64(),
				order.Total.InexactFloat64(),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}

		if int64(page*reportPageSize) >= total || len(orders) == 0 {
			break
		}
	}

	// Total row at the bottom
	if row > 2 {
		labelCell, _ := excelize.CoordinatesToCellName(11, row)
		sumCell, _ := excelize.CoordinatesToCellName(12, row)
		if err := f.SetCellValue(sheet, labelCell, "Grand Total"); err != nil {
			return nil, err
		}
		formula := fmt.Sprintf("SUM(L2:L%s)", strconv.Itoa(row-1))
		if err := f.SetCellFormula(sheet, sumCell, formula); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		logger.Error("Failed to write spreadsheet", err)
		return nil, err
	}

	logger.Info("Order export complete", map[string]interface{}{
		"rows": row - 2,
	})
	return buf.Bytes(), nil
}
