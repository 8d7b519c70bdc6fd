package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	ledgerRepo repository.LedgerRepository
}

func NewExportService(ledgerRepo repository.LedgerRepository) *ExportService {
	return &ExportService{ledgerRepo: ledgerRepo}
}

// ExportLedgerCSV renders the organization's filtered ledger as CSV
func (s *ExportService) ExportLedgerCSV(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]byte, string, error) {
	entries, err := s.loadAll(ctx, organizationID, query)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Ledger Export", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Date", "Member", "Kind", "Status", "Category", "Amount", "Method", "Description"})

	for i := range entries {
		e := &entries[i]
		method := ""
		if e.Method != nil {
			method = *e.Method
		}
		_ = writer.Write([]string{
			e.OccurredOn.Format(time.DateOnly),
			fmt.Sprintf("%d", e.MemberID),
			e.Kind,
			e.Status,
			e.Category,
			fmt.Sprintf("%.2f", e.Amount),
			method,
			e.Description,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ledger_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportLedgerXLSX renders the organization's filtered ledger as a workbook
func (s *ExportService) ExportLedgerXLSX(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]byte, string, error) {
	entries, err := s.loadAll(ctx, organizationID, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ledger"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Date", "Member", "Kind", "Status", "Category", "Amount", "Method", "Description"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range entries {
		e := &entries[i]
		method := ""
		if e.Method != nil {
			method = *e.Method
		}
		row := i + 2
		values := []interface{}{
			e.OccurredOn.Format(time.DateOnly),
			e.MemberID,
			e.Kind,
			e.Status,
			e.Category,
			e.Amount,
			method,
			e.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ledger_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// loadAll pulls every matching entry page by page so exports are never
// truncated to the first page.
func (s *ExportService) loadAll(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.LedgerEntry, error) {
	if query == nil {
		query = repository.NewListQuery()
	}
	query.Page = 1
	query.PerPage = 500

	var all []models.LedgerEntry
	for {
		page, total, err := s.ledgerRepo.List(ctx, organizationID, query)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if int64(len(all)) >= total || len(page) == 0 {
			return all, nil
		}
		query.Page++
	}
}
