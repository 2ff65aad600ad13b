package scheduler

type WeekRange struct {
	StartDate string
	EndDate   string
}

// WeekBounds 返回 date 所在周的周一和周日
func WeekBounds(date string) (WeekRange, error) {
	d, err := ParseDate(date)
	if err != nil {
		return WeekRange{}, err
	}

	// time.Weekday 中周日为 0，这里换算成距离周一的天数
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)

	return WeekRange{
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
	}, nil
}

func AddDays(date string, days int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, days).Format(DateLayout), nil
}
