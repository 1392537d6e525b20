package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type LogStatus int

const (
	VERBOSE LogStatus = iota
	DEBUG
	INFO
	SUCCESS
	NEW
	REMOVE
	STOP
	WARNING
	ERROR
	FATAL
)

var minStatus = INFO

func (e LogStatus) String() string {
	return []string{
		"V",
		"D",
		"I",
		"✓",
		"+",
		"-",
		"X",
		"!",
		"!!",
		"PANIC",
	}[e]
}

func (e LogStatus) Level() int { return int(e) }

func (e LogStatus) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),                //Verbose
		color.New(color.FgWhite, color.Italic),                //Debug
		color.New(color.FgWhite),                              //Info
		color.New(color.FgHiGreen),                            //Success
		color.New(color.FgGreen, color.Italic),                //New
		color.New(color.FgYellow, color.Italic),               //Remove
		color.New(color.FgHiYellow),                           //Stop
		color.New(color.FgYellow, color.Underline),            //Warning
		color.New(color.FgHiRed, color.Bold),                  //Error
		color.New(color.FgHiRed, color.Bold, color.Underline), //PANIC
	}[e]
}

// Logger is the diagnostics sink handed to every component. Messages
// are printf-style and are expected to carry their own trailing newline.
type Logger interface {
	Emit(LogStatus, string, ...interface{})
}

type loggerImpl struct {
	name string
}

func (l *loggerImpl) Emit(status LogStatus, message string, interpolations ...interface{}) {
	Log.Emit(status, l.name, message, interpolations...)
}

type LoggerManager interface {
	GetLogger(string) Logger
	Emit(LogStatus, string, string, ...interface{})
}

var Log LoggerManager = &loggerMgr{
	offset: 0,
	out:    color.Output,
}

// loggerMgr pads every logger name to the longest name seen so far. Workers
// log concurrently, so the offset and the writer are guarded.
type loggerMgr struct {
	sync.Mutex
	offset int
	out    io.Writer
}

func (l *loggerMgr) GetLogger(name string) Logger {
	return &loggerImpl{name: name}
}

func (l *loggerMgr) Emit(status LogStatus, name string, message string, interpolations ...interface{}) {
	if status < minStatus {
		return
	}

	l.Lock()
	defer l.Unlock()

	l.setNameOffset(len(name))
	padding := strings.Repeat(" ", l.offset-len(name))
	msg := fmt.Sprintf("[%s] %s(%s) %s", name, padding, status, fmt.Sprintf(message, interpolations...))

	status.Color().Fprint(l.out, msg)
}

func (l *loggerMgr) setNameOffset(offset int) {
	if offset > l.offset {
		l.offset = offset
	}
}

// Get returns a named logger which writes through the global manager.
func Get(name string) Logger {
	return Log.GetLogger(name)
}

// SetMinLoggingLevel drops any message below the given level.
func SetMinLoggingLevel(level int) {
	if level < VERBOSE.Level() || level > FATAL.Level() {
		fmt.Fprintf(os.Stderr, "ignoring illegal logging level %d\n", level)
		return
	}

	minStatus = LogStatus(level)
}

// ParseLevel maps a level name (as found in configuration) to a LogStatus.
func ParseLevel(name string) (LogStatus, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose":
		return VERBOSE, nil
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warning", "warn":
		return WARNING, nil
	case "error":
		return ERROR, nil
	}

	return INFO, fmt.Errorf("unknown logging level %q", name)
}
