package bs

import "fmt"

// MonthNames lists the English transliterations of the Bikram Sambat months,
// Baishakh (mid-April) through Chaitra (mid-March).
var MonthNames = [monthsPerYear]string{
	"Baishakh",
	"Jestha",
	"Ashadh",
	"Shrawan",
	"Bhadra",
	"Ashwin",
	"Kartik",
	"Mangsir",
	"Poush",
	"Magh",
	"Falgun",
	"Chaitra",
}

// MonthName returns the transliterated name of month (1..12).
func MonthName(month int) (string, error) {
	if month < 1 || month > monthsPerYear {
		return "", fmt.Errorf("bs: month %d out of range 1..12", month)
	}
	return MonthNames[month-1], nil
}
