package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/dto"
	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
	"github.com/noah-isme/account-console/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"Name", "Nickname", "Email", "Level", "Status"}

type userSource interface {
	Filtered(ctx context.Context, sess *models.Session) ([]models.User, error)
	Levels(ctx context.Context, sess *models.Session) ([]models.Level, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the complete filtered listing as CSV or PDF.
type ExportService struct {
	users  userSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(users userSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{users: users, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders every record matching the session filters in format.
func (s *ExportService) Export(ctx context.Context, sess *models.Session, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	users, err := s.users.Filtered(ctx, sess)
	if err != nil {
		return nil, err
	}
	levels, err := s.users.Levels(ctx, sess)
	if err != nil {
		s.logger.Warn("exporting without level labels", zap.Error(err))
		levels = nil
	}
	dataset := buildUserDataset(users, levels)

	now := s.now()
	name := fmt.Sprintf("users-%s.%s", now.Format("20060102-150405"), format)
	file := &ExportFile{Filename: name}
	switch format {
	case ExportFormatCSV:
		file.ContentType = "text/csv; charset=utf-8"
		file.Body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		title := "Users"
		if sess.SystemName != "" {
			title = "Users - " + sess.SystemName
		}
		file.Body, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("user export rendered", zap.String("format", format), zap.Int("rows", len(users)))
	return file, nil
}

func buildUserDataset(users []models.User, levels []models.Level) export.Dataset {
	rows := make([]map[string]string, 0, len(users))
	for _, u := range users {
		status := "Active"
		if u.Deactivated {
			status = "Inactive"
		}
		rows = append(rows, map[string]string{
			"Name":     u.DisplayName,
			"Nickname": u.Nickname,
			"Email":    u.Email,
			"Level":    dto.LevelLabel(levels, u.LevelID),
			"Status":   status,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
