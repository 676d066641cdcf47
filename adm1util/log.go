/*
Copyright © 2019 the adm1char authors.
This file is part of adm1char.

adm1char is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

adm1char is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with adm1char.  If not, see <http://www.gnu.org/licenses/>.
*/

package adm1util

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger that writes to w at the given level
// ("debug", "info", "warning", etc.).
func NewLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("adm1util: invalid LogLevel: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	return logger, nil
}

// startLog creates a logger that writes to out and, if logFile is
// not empty, also to logFile. The returned function closes the log file.
func startLog(out io.Writer, level, logFile string, up *uploader) (*logrus.Logger, func() error, error) {
	if logFile == "" {
		logger, err := NewLogger(out, level)
		return logger, func() error { return nil }, err
	}
	local, err := up.maybeUpload(os.ExpandEnv(logFile))
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Create(local)
	if err != nil {
		return nil, nil, fmt.Errorf("adm1util: problem creating log file: %v", err)
	}
	logger, err := NewLogger(io.MultiWriter(out, f), level)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f.Close, nil
}
