package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rakib-bul/exportScan/internal/model"
)

// 两侧导出表必需的匹配列（列名先经 CleanColumnName 归一）
var requiredColumns = []string{"ponumber", "jobno", "stylerefno", "color"}

// 数量列：Logic 侧为出厂数量，Store 侧为出货数量
var qtyColumnBySide = map[model.RecordSide]string{
	model.SideLogic: "exfactoryqty",
	model.SideStore: "shipqty",
}

// Parser 导出表解析器
type Parser struct {
	file   *excelize.File
	fileID string
}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{
		fileID: uuid.New().String(),
	}
}

// LoadFile 加载 Excel 文件
func (p *Parser) LoadFile(reader io.Reader) error {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return fmt.Errorf("failed to open excel: %w", err)
	}
	p.file = file
	return nil
}

// OpenFile 按路径打开 Excel 文件
func (p *Parser) OpenFile(path string) error {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open excel: %w", err)
	}
	p.file = file
	return nil
}

// GetFileID 获取文件 ID
func (p *Parser) GetFileID() string {
	return p.fileID
}

// Workbook 返回已加载的工作簿对象（只读使用）
func (p *Parser) Workbook() *excelize.File {
	return p.file
}

// Close 关闭文件
func (p *Parser) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseOptions 解析选项
type ParseOptions struct {
	Sheet             string // 为空时取第一个工作表
	Side              model.RecordSide
	NormalizeJobLast4 bool // 工单号只取末 4 位（两套系统的工单号前缀口径不同）
}

// ParseResult 单侧解析结果
type ParseResult struct {
	Sheet       string
	Records     []*model.Record
	Rows        int // 数据行数（不含表头）
	SkippedRows int // 整行全空，直接跳过
}

// Parse 将指定工作表解析为记录序列
// 表头按 CleanColumnName 归一后校验必需列；匹配列之外的列原样透传到 Extra。
func (p *Parser) Parse(opts ParseOptions) (*ParseResult, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}
	if opts.Side != model.SideLogic && opts.Side != model.SideStore {
		return nil, fmt.Errorf("unknown record side: %q", opts.Side)
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheets := p.file.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		cleaned := CleanColumnName(col)
		if _, ok := colIndex[cleaned]; !ok {
			colIndex[cleaned] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns in %s export: %s", opts.Side, strings.Join(missing, ", "))
	}

	qtyCol, hasQtyCol := colIndex[qtyColumnBySide[opts.Side]]

	result := &ParseResult{Sheet: sheet}

	for i, row := range rows[1:] {
		rowNo := i + 2
		if rowIsEmpty(row) {
			result.SkippedRows++
			continue
		}
		result.Rows++

		rec := &model.Record{
			ID:        uuid.New().String(),
			Side:      opts.Side,
			RowNo:     rowNo,
			PONumber:  getCell(row, colIndex["ponumber"]),
			JobNumber: getCell(row, colIndex["jobno"]),
			Style:     getCell(row, colIndex["stylerefno"]),
			Color:     getCell(row, colIndex["color"]),
		}
		if opts.NormalizeJobLast4 {
			rec.JobNumber = jobLast4(rec.JobNumber)
		}
		if hasQtyCol {
			if qty, ok := parseOptionalFloat(getCell(row, qtyCol)); ok {
				rec.Qty = qty
				rec.HasQty = true
			}
		}

		// 非匹配列透传，导出时原样带回
		extra := make(map[string]string)
		for j, h := range header {
			cleaned := CleanColumnName(h)
			if cleaned == "ponumber" || cleaned == "jobno" || cleaned == "stylerefno" || cleaned == "color" {
				continue
			}
			if cleaned == qtyColumnBySide[opts.Side] {
				continue
			}
			if v := getCell(row, j); v != "" {
				extra[strings.TrimSpace(h)] = v
			}
		}
		if len(extra) > 0 {
			rec.Extra = extra
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// CleanColumnName 列名归一：小写并去掉空格、下划线、连字符
// 两套系统的表头写法随版本漂移（"PO Number" / "po_number" / "PONumber"）。
func CleanColumnName(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.ReplaceAll(col, " ", "")
	col = strings.ReplaceAll(col, "_", "")
	col = strings.ReplaceAll(col, "-", "")
	return col
}

// jobLast4 工单号取末 4 位
func jobLast4(job string) string {
	job = strings.TrimSpace(job)
	runes := []rune(job)
	if len(runes) <= 4 {
		return job
	}
	return string(runes[len(runes)-4:])
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// 移除千分位分隔符
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
