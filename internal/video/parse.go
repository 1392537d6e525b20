package video

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	dateLayout = "20060102"

	// fileNamePrefixLen is the length of the YYYYMMDDHHMM prefix that
	// recorders stamp on every file.
	fileNamePrefixLen = 12
)

// PathFields contains the values derived purely from a recording's file
// name and the name of the camera directory containing it.
type PathFields struct {
	Channel int
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Minute  int
}

// Date returns the recording date formatted as YYYY-MM-DD.
func (f PathFields) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", f.Year, f.Month, f.Day)
}

// Clock returns the recording wall-clock time as HH:MM:00. Recorders only
// stamp minutes so the seconds are always zero.
func (f PathFields) Clock() string {
	return fmt.Sprintf("%02d:%02d:00", f.Hour, f.Minute)
}

// Parse derives the channel, date and time of a recording. The channel is
// the final character of the camera directory name; the date and time are
// the YYYYMMDDHHMM prefix of the file name. No timezone is attached.
func Parse(fileName string, cameraDirName string) (PathFields, error) {
	var fields PathFields

	channel, err := parseChannel(cameraDirName)
	if err != nil {
		return fields, &ParseError{Type: BadChannel, Input: cameraDirName, Err: err}
	}
	fields.Channel = channel

	if len(fileName) < len(dateLayout) {
		return fields, &ParseError{Type: BadDate, Input: fileName, Err: fmt.Errorf("name shorter than %d characters", len(dateLayout))}
	}
	date, err := time.Parse(dateLayout, fileName[:len(dateLayout)])
	if err != nil {
		return fields, &ParseError{Type: BadDate, Input: fileName, Err: err}
	}
	fields.Year, fields.Month, fields.Day = date.Date()

	if len(fileName) < fileNamePrefixLen {
		return fields, &ParseError{Type: BadTime, Input: fileName, Err: fmt.Errorf("name shorter than %d characters", fileNamePrefixLen)}
	}
	hour, okH := twoDigits(fileName[8:10])
	minute, okM := twoDigits(fileName[10:12])
	if !okH || !okM {
		return fields, &ParseError{Type: BadTime, Input: fileName, Err: fmt.Errorf("%q is not HHMM", fileName[8:12])}
	}
	if hour > 23 || minute > 59 {
		return fields, &ParseError{Type: BadTime, Input: fileName, Err: fmt.Errorf("%02d:%02d is not a valid time of day", hour, minute)}
	}
	fields.Hour, fields.Minute = hour, minute

	return fields, nil
}

func parseChannel(cameraDirName string) (int, error) {
	last, size := utf8.DecodeLastRuneInString(cameraDirName)
	if size == 0 {
		return 0, fmt.Errorf("camera directory name is empty")
	}
	if last < '0' || last > '9' {
		return 0, fmt.Errorf("camera directory %q does not end in a digit", cameraDirName)
	}

	return int(last - '0'), nil
}

// twoDigits parses exactly two ASCII digits, no signs or spaces.
func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
