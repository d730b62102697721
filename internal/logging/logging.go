package logging

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure routes the standard logger into a rotating file at path. The
// returned writer should be closed on exit.
func Configure(path string) io.WriteCloser {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
	}
	log.SetOutput(out)
	log.SetPrefix("podboard ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix)
	return out
}
