package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

const exportSheet = "Tickets"

var exportHeaders = []any{
	"ID", "Title", "Description", "Category", "Priority", "Status",
	"Submitter", "Submitter Email", "Assigned To", "Created At", "Updated At", "Closed At", "Resolution Notes",
}

// Export renders every ticket matching query into an .xlsx workbook.
// Paging parameters are ignored.
func (s *TicketService) Export(ctx context.Context, query TicketQuery) ([]byte, string, error) {
	query.Page, query.PageSize = 0, 0
	page, err := s.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("closing export workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "M1", style)
	}

	for i, d := range page.Tickets {
		t := d.Ticket
		var submitter, submitterEmail, assignee string
		if d.Submitter != nil {
			submitter, submitterEmail = d.Submitter.FullName(), d.Submitter.Email
		}
		if d.AssignedTo != nil {
			assignee = d.AssignedTo.FullName()
		}
		notes := ""
		if t.ResolutionNotes != nil {
			notes = *t.ResolutionNotes
		}
		row := []any{
			t.ID, t.Title, t.Description, t.Category, string(t.Priority), string(t.Status),
			submitter, submitterEmail, assignee,
			formatExportTime(&t.CreatedAt), formatExportTime(t.UpdatedAt), formatExportTime(t.ClosedAt), notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", apperrors.NewInternalError(err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", apperrors.NewInternalError(err)
		}
	}

	_ = f.SetColWidth(exportSheet, "B", "C", 40)
	_ = f.SetColWidth(exportSheet, "G", "I", 25)
	_ = f.SetColWidth(exportSheet, "J", "L", 20)
	_ = f.SetColWidth(exportSheet, "M", "M", 50)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	fileName := fmt.Sprintf("tickets_%s.xlsx", s.now().Format("2006-01-02"))
	return buf.Bytes(), fileName, nil
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
