package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// exportMaxRows 单次导出的最大行数
const exportMaxRows = 10000

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportJamPosts 按列表筛选条件导出拥堵上报为 Excel
	ExportJamPosts(ctx context.Context, req *dto.JamPostListRequest) (*bytes.Buffer, string, error)
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
// ExportJamPosts 导出拥堵上报为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet "拥堵上报"，第 1 行为标题，第 2 行为表头
//   - 每行一条上报：ID / 上报人 / 邮箱 / 纬度 / 经度 / 等级 / 备注 / 评论数 / 反应数 / 上报时间
//   - 分页参数被忽略，最多导出 exportMaxRows 行
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportJamPosts(ctx context.Context, req *dto.JamPostListRequest) (*bytes.Buffer, string, error) {
	now := s.now()

	// 1. 查询上报
	posts, _, err := s.repo.JamPost.List(ctx, buildJamPostFilter(req, now), 0, exportMaxRows)
	if err != nil {
		s.logger.Error("查询上报失败", zap.Error(err))
		return nil, "", err
	}

	ids := make([]uint, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
	}

	// 2. 批量统计
	commentCounts, err := s.repo.Comment.CountByJamPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计评论数失败", zap.Error(err))
		return nil, "", err
	}
	reactions, err := s.repo.Reaction.CountsByJamPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计反应数失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "拥堵上报"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "上报人", "邮箱", "纬度", "经度", "等级", "备注", "评论数", "反应数", "上报时间"}
	widths := []float64{8, 14, 26, 14, 14, 10, 40, 10, 10, 22}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("拥堵上报导出 %s", now.Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	for i := range posts {
		p := &posts[i]
		userName, email := "-", "-"
		if p.User != nil {
			userName, email = p.User.Name, p.User.Email
		}
		note := ""
		if p.Note != nil {
			note = *p.Note
		}
		_, reactionTotal := reactionCounts(reactions[p.ID])

		values := []interface{}{
			p.ID,
			userName,
			email,
			p.Latitude,
			p.Longitude,
			p.Level,
			note,
			commentCounts[p.ID],
			reactionTotal,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("jam_posts_%s.xlsx", now.Format("20060102_150405"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
