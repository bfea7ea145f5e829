package processor

// 派生的展示列
const (
	ColDayType     = "workingday_desc"
	ColWeekdayName = "weekday_name"
	ColSeasonName  = "season_desc"
)

const (
	DayTypeWeekday = "Weekday"
	DayTypeWeekend = "Weekend"
)

// DayTypes 图表中的固定顺序
var DayTypes = []string{DayTypeWeekday, DayTypeWeekend}

// WeekdayNames 下标即 weekday 编码，0 为周日
var WeekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// SeasonNames 下标为 season 编码减一
var SeasonNames = []string{"Spring", "Summer", "Fall", "Winter"}

// DayTypeLabel workingday 为 1 是工作日，其余为周末/节假日
func DayTypeLabel(workingDay bool) string {
	if workingDay {
		return DayTypeWeekday
	}
	return DayTypeWeekend
}

func WeekdayName(code int) (string, bool) {
	if code < 0 || code >= len(WeekdayNames) {
		return "", false
	}
	return WeekdayNames[code], true
}

func SeasonName(code int) (string, bool) {
	if code < 1 || code > len(SeasonNames) {
		return "", false
	}
	return SeasonNames[code-1], true
}
