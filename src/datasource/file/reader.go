// reader.go
package file

import (
	"BikeRentalDashboard/src/config"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// ErrUnsupportedFormat 数据文件扩展名不是 .csv / .xlsx
var ErrUnsupportedFormat = errors.New("unsupported data file format")

// 标准列的类型，其余列交给 gota 自动推断
var columnTypes = map[string]series.Type{
	config.ColDate:       series.String,
	config.ColSeason:     series.Int,
	config.ColWeekday:    series.Int,
	config.ColWorkingDay: series.Int,
	config.ColTemp:       series.Float,
	config.ColCasual:     series.Int,
	config.ColRegistered: series.Int,
	config.ColCount:      series.Int,
}

// ReadDataFrame 按扩展名读取 csv 或 xlsx，并把列名映射为标准列名
func ReadDataFrame(filePath, sheetName string, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}

	var (
		df  dataframe.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		df, err = ReadCSV(filePath, dcfg)
	case ".xlsx":
		df, err = ReadXLSX(filePath, sheetName, dcfg)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", filePath, ErrUnsupportedFormat)
	}
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	return renameColumns(df, dcfg), nil
}

// ReadCSV 读取 csv 文件为 DataFrame
func ReadCSV(filePath string, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithTypes(sourceTypes(dcfg)))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("解析csv失败 %s: %w", filePath, df.Err)
	}
	return df, nil
}

// ReadXLSX 读取 xlsx 指定工作表，找不到时使用第一个工作表
// 第一行为表头
func ReadXLSX(filePath, sheetName string, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file false: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		sheet = xlFile.Sheets[0]
	}

	records := sheetRecords(sheet)
	if len(records) < 1 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 为空", sheet.Name)
	}

	df := dataframe.LoadRecords(records, dataframe.WithTypes(sourceTypes(dcfg)))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("转换为dataframe失败: %w", df.Err)
	}
	return df, nil
}

// sheetRecords 将xlsx.Sheet转换为字符串记录，空行跳过
func sheetRecords(sheet *xlsx.Sheet) [][]string {
	if len(sheet.Rows) == 0 {
		return nil
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)

	for _, row := range sheet.Rows[1:] {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		record := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i < len(headers) { // 确保不超出列数范围
				record[i] = cell.Value
				if cell.Value != "" {
					empty = false
				}
			}
		}
		if !empty {
			records = append(records, record)
		}
	}
	return records
}

// sourceTypes 把标准列的类型换成数据文件中的列名
func sourceTypes(dcfg *config.DataConfig) map[string]series.Type {
	types := make(map[string]series.Type, len(columnTypes))
	for canonical, t := range columnTypes {
		types[dcfg.GetColumn(canonical)] = t
	}
	return types
}

func renameColumns(df dataframe.DataFrame, dcfg *config.DataConfig) dataframe.DataFrame {
	names := df.Names()
	for _, canonical := range config.CanonicalColumns {
		source := dcfg.GetColumn(canonical)
		if source == canonical {
			continue
		}
		for _, n := range names {
			if n == source {
				df = df.Rename(canonical, source)
				break
			}
		}
	}
	return df
}
