package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/scheduler"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// RomanizeName 将中文姓名转为拼音，如 "王小明" -> "Wang Xiaoming"
func RomanizeName(chineseName string) string {
	syllables := pinyin.LazyConvert(chineseName, nil)
	if len(syllables) == 0 {
		return chineseName
	}

	surname := capitalize(syllables[0])
	given := capitalize(strings.Join(syllables[1:], ""))
	if given == "" {
		return surname
	}
	return surname + " " + given
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// 每天固定的几个时段，互不重叠且不跨越零点
var shiftSlots = []struct {
	label string
	start int
	end   int
}{
	{"Morning", 6, 10},
	{"Midday", 10, 14},
	{"Afternoon", 14, 18},
	{"Evening", 18, 22},
}

// MaxRandomShiftsPerWeek 是 GenerateRandomShifts 一周最多能生成的班次数量
var MaxRandomShiftsPerWeek = 7 * len(shiftSlots)

// GenerateRandomShifts 在 date 所在的周内生成 n 个互不冲突的班次
func GenerateRandomShifts(date string, n int) ([]domain.CreateShiftInput, error) {
	bounds, err := scheduler.WeekBounds(date)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > MaxRandomShiftsPerWeek {
		return nil, fmt.Errorf("n must be between 0 and %d", MaxRandomShiftsPerWeek)
	}

	// 随机挑选 n 个 (天, 时段) 组合
	cells := rand.Perm(MaxRandomShiftsPerWeek)[:n]

	shifts := make([]domain.CreateShiftInput, 0, n)
	for _, cell := range cells {
		day, slot := cell/len(shiftSlots), shiftSlots[cell%len(shiftSlots)]

		shiftDate, err := scheduler.AddDays(bounds.StartDate, day)
		if err != nil {
			return nil, err
		}

		startMinute := rand.Intn(4) * 15
		endMinute := rand.Intn(4) * 15
		shifts = append(shifts, domain.CreateShiftInput{
			Name:      fmt.Sprintf("%s (%s)", slot.label, RomanizeName(GenerateRandomChineseName())),
			Date:      shiftDate,
			StartTime: fmt.Sprintf("%02d:%02d", slot.start, startMinute),
			EndTime:   fmt.Sprintf("%02d:%02d", slot.end-1, endMinute),
		})
	}

	return shifts, nil
}
