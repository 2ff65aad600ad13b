package scheduler

import "github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"

// ClashWindow 返回冲突检测需要扫描的日期范围 [date-1, date+1]
//
// 前一天开始的跨夜班次可能与当天的班次重叠，为简单起见窗口保持对称
func ClashWindow(date string) (from string, to string, err error) {
	if from, err = AddDays(date, -1); err != nil {
		return "", "", err
	}
	if to, err = AddDays(date, 1); err != nil {
		return "", "", err
	}
	return from, to, nil
}

// FindClash 在 pool 中按顺序寻找第一个与 candidate 重叠的班次，excludeID 对应的班次会被跳过
func FindClash(candidate Interval, pool []*domain.Shift, excludeID string) (*domain.Shift, error) {
	for _, shift := range pool {
		if excludeID != "" && shift.ID == excludeID {
			continue
		}

		existing, err := CalculateInterval(shift.Date, shift.StartTime, shift.EndTime)
		if err != nil {
			return nil, err
		}

		if candidate.Overlaps(existing) {
			return shift, nil
		}
	}

	return nil, nil
}
