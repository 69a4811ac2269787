package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
	"homework-tracker/pkg/metrics"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

const (
	exportPageSize = 100
	exportSheet    = "Devoirs"
	calendarDomain = "homework-tracker"
)

// ExportService 导出业务接口
//
// 两种格式共用作业列表的查询计划（搜索、完成状态、排序均一致），逐页读取全部匹配记录。
// 逐页读取之间没有快照隔离，导出期间的并发写入可能导致个别记录重复或遗漏。
// 返回值：buf（文件内容）, filename（建议文件名）, error
type ExportService interface {
	ExportXLSX(ctx context.Context, filter *dto.AssignmentFilter) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context, filter *dto.AssignmentFilter) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX 导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：Sheet "Devoirs"，列：Nom | Date de rendu | Description | Propriétaire | Rendu

func (s *exportService) ExportXLSX(ctx context.Context, filter *dto.AssignmentFilter) (*bytes.Buffer, string, error) {
	// 1. 读取全部匹配作业
	items, err := s.collect(ctx, filter)
	if err != nil {
		metrics.ObserveOperation("export_xlsx", err)
		return nil, "", err
	}

	// 2. 所有者姓名
	owners := s.ownerNames(ctx, items)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		s.logger.Error("重命名 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	f.SetColWidth(exportSheet, "A", "A", 36)
	f.SetColWidth(exportSheet, "B", "B", 14)
	f.SetColWidth(exportSheet, "C", "C", 60)
	f.SetColWidth(exportSheet, "D", "D", 20)
	f.SetColWidth(exportSheet, "E", "E", 8)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	header := []interface{}{"Nom", "Date de rendu", "Description", "Propriétaire", "Rendu"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		s.logger.Error("写入表头失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetCellStyle(exportSheet, "A1", "E1", headerStyle)

	// 数据行
	for i, it := range items {
		owner := ""
		if it.OwnerID != nil {
			owner = owners[*it.OwnerID]
		}
		rendu := "Non"
		if it.Rendu {
			rendu = "Oui"
		}
		row := []interface{}{it.Title, it.DueDate.Format("2006-01-02"), it.Description, owner, rendu}
		if err := f.SetSheetRow(exportSheet, cell("A", i+2), &row); err != nil {
			s.logger.Error("写入数据行失败", zap.Int("row", i+2), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	metrics.ObserveOperation("export_xlsx", nil)

	filename := fmt.Sprintf("devoirs_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS 导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个作业对应截止日期当天的全天事件；UID 为 <id>@homework-tracker，订阅端据此去重。
// 已完成作业的标题前加 ✔。

func (s *exportService) ExportICS(ctx context.Context, filter *dto.AssignmentFilter) (*bytes.Buffer, string, error) {
	items, err := s.collect(ctx, filter)
	if err != nil {
		metrics.ObserveOperation("export_ics", err)
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//homework-tracker//Devoirs//FR")
	cal.SetXWRCalName("Devoirs")

	stamp := s.now().UTC()
	for _, it := range items {
		event := cal.AddEvent(fmt.Sprintf("%s@%s", it.AssignmentID, calendarDomain))
		event.SetDtStampTime(stamp)

		day := time.Date(it.DueDate.Year(), it.DueDate.Month(), it.DueDate.Day(), 0, 0, 0, 0, time.UTC)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))

		summary := it.Title
		if it.Rendu {
			summary = "✔ " + summary
		}
		event.SetSummary(summary)
		if it.Description != "" {
			event.SetDescription(it.Description)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	metrics.ObserveOperation("export_ics", nil)
	return buf, "devoirs.ics", nil
}

// ── 辅助函数 ──

// collect 逐页读取全部匹配作业
func (s *exportService) collect(ctx context.Context, filter *dto.AssignmentFilter) ([]model.AssignmentStatus, error) {
	var all []model.AssignmentStatus
	for page := 1; ; page++ {
		result, err := s.repo.Assignment.List(ctx, newAssignmentQuery(filter, page, exportPageSize))
		if err != nil {
			if errors.Is(err, pkgerrors.ErrInvalidID) {
				return nil, ErrInvalidViewer
			}
			s.logger.Error("导出时查询作业失败", zap.Int("page", page), zap.Error(err))
			return nil, err
		}
		all = append(all, result.Items...)
		if len(result.Items) == 0 || int64(page*exportPageSize) >= result.Total {
			return all, nil
		}
	}
}

// ownerNames 查询所有者显示名，查不到时退回用户 ID
func (s *exportService) ownerNames(ctx context.Context, items []model.AssignmentStatus) map[string]string {
	names := make(map[string]string)
	for _, it := range items {
		if it.OwnerID == nil {
			continue
		}
		id := *it.OwnerID
		if _, ok := names[id]; ok {
			continue
		}
		names[id] = id
		user, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, pkgerrors.ErrNotFound) {
				s.logger.Warn("查询作业所有者失败", zap.String("user_id", id), zap.Error(err))
			}
			continue
		}
		names[id] = user.Name
	}
	return names
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
