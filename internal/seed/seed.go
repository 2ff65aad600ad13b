// Package seed 用于向开发环境写入测试数据，所有写入都经过 service 层的校验
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/utils"
)

var csvHeader = []string{"name", "date", "startTime", "endTime"}

// RowError 记录某一行被跳过的原因，Line 从 1 开始并包含表头
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

type Result struct {
	Created int
	Skipped []RowError
}

// ImportShifts 从 CSV 中逐行创建班次。冲突以及已发布的周会被跳过，不会中断导入
func ImportShifts(ctx context.Context, shifts *service.ShiftService, r io.Reader, logger zerolog.Logger) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	result := Result{}
	line := 0
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return result, err
		}
		line++

		// 表头可有可无
		if line == 1 && slices.Equal(row, csvHeader) {
			continue
		}

		in := domain.CreateShiftInput{
			Name:      strings.TrimSpace(row[0]),
			Date:      strings.TrimSpace(row[1]),
			StartTime: strings.TrimSpace(row[2]),
			EndTime:   strings.TrimSpace(row[3]),
		}

		created, err := shifts.CreateShift(ctx, in)
		if err != nil {
			var derr *domain.Error
			if !errors.As(err, &derr) || derr.Kind == domain.KindInternal {
				return result, err
			}
			logger.Warn().Int("line", line).Err(err).Msg("跳过班次")
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}

		logger.Debug().Int("line", line).Str("id", created.ID).Msg("已导入班次")
		result.Created++
	}

	return result, nil
}

// SeedRandomWeek 在 date 所在的周中随机创建 n 个互不冲突的班次
func SeedRandomWeek(ctx context.Context, shifts *service.ShiftService, date string, n int, logger zerolog.Logger) (int, error) {
	inputs, err := utils.GenerateRandomShifts(date, n)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for _, in := range inputs {
		if _, err := shifts.CreateShift(ctx, in); err != nil {
			// 已有的班次可能与随机班次冲突
			logger.Warn().Err(err).Str("date", in.Date).Str("startTime", in.StartTime).Msg("无法创建随机班次")
			continue
		}
		cnt++
	}

	return cnt, nil
}
