package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

type exportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewExportService(sessions SessionService, logger *slog.Logger) ExportService {
	return &exportService{
		sessions: sessions,
		logger:   logger,
	}
}

// ExportSessionResults renders the session summary as a spreadsheet. Only
// completed sessions can be exported.
func (s *exportService) ExportSessionResults(ctx context.Context, sessionID string) (*excelize.File, error) {
	summary, err := s.sessions.Summary(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to build session summary: %w", err)
	}
	if !summary.Complete {
		return nil, ErrSessionNotComplete
	}
	if len(summary.Questions) == 0 {
		return nil, ErrExportNothingToWrite
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create results sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("Failed to remove default sheet", "error", err)
	}

	if err := s.writeHeader(f, summary); err != nil {
		return nil, err
	}
	if err := s.writeRows(f, summary); err != nil {
		return nil, err
	}

	s.logger.Info("Session results exported",
		"session_id", summary.SessionID,
		"quiz_id", summary.QuizID,
		"questions", len(summary.Questions))

	return f, nil
}

func (s *exportService) writeHeader(f *excelize.File, summary *SessionSummary) error {
	meta := [][]interface{}{
		{"Session", summary.SessionID},
		{"Quiz", summary.QuizID},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05")},
		{"Score", fmt.Sprintf("%d / %d", summary.Correct, summary.Total)},
	}
	for i, row := range meta {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	columns := []interface{}{"#", "Question", "Type", "Answer", "Correct"}
	headerRow := len(meta) + 2
	cell, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, cell, &columns); err != nil {
		return fmt.Errorf("failed to write column header: %w", err)
	}
	endCell, err := excelize.CoordinatesToCellName(len(columns), headerRow)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetCellStyle(resultsSheet, cell, endCell, headerStyle); err != nil {
		return fmt.Errorf("failed to style column header: %w", err)
	}

	return nil
}

func (s *exportService) writeRows(f *excelize.File, summary *SessionSummary) error {
	// Rows start below the metadata block and column header.
	base := 7
	for i, result := range summary.Questions {
		verdict := ""
		if result.Correct != nil {
			if *result.Correct {
				verdict = "yes"
			} else {
				verdict = "no"
			}
		}
		row := []interface{}{
			i + 1,
			result.Prompt,
			string(result.Type),
			result.AnswerText,
			verdict,
		}
		cell, err := excelize.CoordinatesToCellName(1, base+i)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	if err := f.SetColWidth(resultsSheet, "B", "B", 50); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(resultsSheet, "D", "D", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}
