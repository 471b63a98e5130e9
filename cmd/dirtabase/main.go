package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

func init() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d", strings.TrimPrefix(f.File, p), f.Line)
	}
}

func main() {
	rc, msg := Run()
	if len(msg) > 0 {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(rc)
}

// Run executes the root command and maps any error through the exit
// code taxonomy of spec.md §6. Panics from goadapt's Ck (anything not
// already a taxonomy error) are recovered by Halt into rc=1.
func Run() (rc int, msg string) {
	defer Halt(&rc, &msg)

	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		return exitCodeFor(err), err.Error()
	}
	return 0, ""
}
