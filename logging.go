package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// setupLogging builds the Info/Error logger pair, mirroring to stdout/stderr
// and to files under the log directory.
func setupLogging(logDir string) (*log.Logger, *log.Logger) {
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		os.MkdirAll(logDir, 0755)
	}
	fInfo, _ := os.OpenFile(filepath.Join(logDir, "server.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	fErr, _ := os.OpenFile(filepath.Join(logDir, "error.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)

	infoOut := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)
	if fInfo != nil {
		infoOut = io.MultiWriter(os.Stdout, fInfo)
	}
	if fErr != nil {
		errOut = io.MultiWriter(os.Stderr, fErr)
	}

	info := log.New(infoOut, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	errlog := log.New(errOut, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	return info, errlog
}
