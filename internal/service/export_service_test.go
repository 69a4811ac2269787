package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/repository"
)

func setupTestExportService(t *testing.T) (ExportService, *repository.Repository) {
	t.Helper()
	repo := newTestRepo()
	svc := &exportService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return date(2026, 10, 15) },
	}
	return svc, repo
}

func TestExportService_ExportXLSX(t *testing.T) {
	svc, repo := setupTestExportService(t)
	u := mustUser(t, repo, "alice")
	maths := mustAssignment(t, repo, "Maths", date(2023, 11, 20), u)
	mustAssignment(t, repo, "French", date(2023, 12, 15), nil)
	mustComplete(t, repo, maths, u)

	buf, filename, err := svc.ExportXLSX(context.Background(), &dto.AssignmentFilter{UserID: u.UserID})
	if err != nil {
		t.Fatalf("ExportXLSX 失败: %v", err)
	}
	if filename != "devoirs_20261015.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法解析生成的 Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Devoirs")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望 1 行表头 + 2 行数据，实际 %d 行", len(rows))
	}
	if rows[0][0] != "Nom" || rows[0][4] != "Rendu" {
		t.Errorf("表头不符: %v", rows[0])
	}
	if rows[1][0] != "Maths" || rows[1][1] != "2023-11-20" || rows[1][3] != u.Name || rows[1][4] != "Oui" {
		t.Errorf("第一行不符: %v", rows[1])
	}
	if rows[2][0] != "French" || rows[2][4] != "Non" {
		t.Errorf("第二行不符: %v", rows[2])
	}
}

func TestExportService_ExportXLSX_MultiplePages(t *testing.T) {
	svc, repo := setupTestExportService(t)
	for i := 0; i < 130; i++ {
		mustAssignment(t, repo, "Devoir", date(2026, 1, 1).AddDate(0, 0, i), nil)
	}

	buf, _, err := svc.ExportXLSX(context.Background(), &dto.AssignmentFilter{})
	if err != nil {
		t.Fatalf("ExportXLSX 失败: %v", err)
	}
	f, _ := excelize.OpenReader(buf)
	defer f.Close()
	rows, _ := f.GetRows("Devoirs")
	if len(rows) != 131 {
		t.Errorf("期望导出全部 130 条，实际 %d 行（含表头）", len(rows))
	}
}

func TestExportService_ExportICS(t *testing.T) {
	svc, repo := setupTestExportService(t)
	u := mustUser(t, repo, "alice")
	maths := mustAssignment(t, repo, "Maths", date(2023, 11, 20), u)
	mustAssignment(t, repo, "French", date(2023, 12, 15), u)
	mustComplete(t, repo, maths, u)

	buf, filename, err := svc.ExportICS(context.Background(), &dto.AssignmentFilter{Search: "math"})
	if err != nil {
		t.Fatalf("ExportICS 失败: %v", err)
	}
	if filename != "devoirs.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("无法解析生成的日历: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	if events[0].Id() != maths.AssignmentID+"@homework-tracker" {
		t.Errorf("UID 不符: %s", events[0].Id())
	}
	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || summary.Value != "✔ Maths" {
		t.Errorf("已完成作业标题应带 ✔ 前缀，实际 %+v", summary)
	}
}

func TestExportService_InvalidViewer(t *testing.T) {
	svc, _ := setupTestExportService(t)

	_, _, err := svc.ExportICS(context.Background(), &dto.AssignmentFilter{UserID: "bad"})
	if !errors.Is(err, ErrInvalidViewer) {
		t.Errorf("期望 ErrInvalidViewer，实际: %v", err)
	}
}
