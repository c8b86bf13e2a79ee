package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Candidatures"

var exportHeaders = []string{
	"ID",
	"Job application",
	"Status",
	"DP number",
	"Exam date",
	"Psychologue",
	"Logical test",
	"Decision",
	"Decision date",
	"Re-evaluation",
	"Created",
}

// Export writes the candidatures matching filter to w as an xlsx workbook.
func (s *CandidatureService) Export(ctx context.Context, actor authz.Actor, filter CandidatureFilter, w io.Writer) error {
	candidatures, err := s.List(ctx, actor, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetIndex, err := f.NewSheet(exportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(sheetIndex)
	_ = f.DeleteSheet("Sheet1")

	if err := writeRow(f, 1, toAny(exportHeaders)); err != nil {
		return err
	}
	for i, c := range candidatures {
		if err := writeRow(f, i+2, exportRow(c)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write export workbook: %w", err)
	}
	logger(ctx, "candidature_service").Infow("candidatures exported", "actor", actor.ID, "count", len(candidatures))
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(exportSheet, cell, &values)
}

func exportRow(c model.Candidature) []any {
	return []any{
		c.ID.String(),
		c.JobApplicationID.String(),
		string(c.Status),
		deref(c.DpNumber),
		formatTime(c.ExamDate),
		formatID(c.AssignedPsychologueID),
		formatID(c.LogicalTestID),
		formatDecision(c),
		formatTime(c.DecisionDate),
		c.IsReevaluation,
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatID[T fmt.Stringer](id *T) string {
	if id == nil {
		return ""
	}
	return (*id).String()
}

func formatDecision(c model.Candidature) string {
	if c.Decision == nil {
		return ""
	}
	return string(*c.Decision)
}
