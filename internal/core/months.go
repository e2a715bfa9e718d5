package core

import (
	"strings"
	"time"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var monthAbbrevs = [...]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// MonthLabel returns the capitalised pt-BR month name ("Março").
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	name := monthNames[m-1]
	r := []rune(name)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// DayHeader renders a day separator label such as "05 MAR".
func DayHeader(t time.Time) string {
	return t.Format("02") + " " + strings.ToUpper(monthAbbrevs[t.Month()-1])
}
