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
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/adm1char/cloud"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob.
// If it is, it downloads the file and
// returns the path to the downloaded file.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}

	var get func() ([]byte, error)
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		get = func() ([]byte, error) { return downloadHTTP(ctx, path) }
	case cloud.IsBlob(path):
		get = func() ([]byte, error) { return cloud.ReadBlob(ctx, path) }
	default:
		return path, nil
	}

	var b []byte
	err := backoff.RetryNotify(
		func() error {
			var err error
			b, err = get()
			return err
		},
		newBackOff(ctx),
		func(err error, d time.Duration) {
			log.WithError(err).WithField("file", path).Warnf("download failed; retrying in %v", d)
		},
	)
	if err != nil {
		return path, fmt.Errorf("adm1util: downloading '%s': %v", path, err)
	}

	// Prepare a temporary directory for the download.
	dir, err := ioutil.TempDir("", "adm1char")
	if err != nil {
		return path, fmt.Errorf("adm1util: failed creating temporary download directory: %v", err)
	}
	fname := filepath.Join(dir, downloadName(path))
	if err := ioutil.WriteFile(fname, b, 0644); err != nil {
		return path, fmt.Errorf("adm1util: failed writing downloaded file: %v", err)
	}
	log.WithFields(logrus.Fields{"from": path, "to": fname}).Debug("downloaded input")
	return fname, nil
}

// downloadHTTP downloads a file from the specified URL. Client
// errors are not retried.
func downloadHTTP(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return ioutil.ReadAll(resp.Body)
}

// downloadName returns the base file name of a URL or blob path,
// keeping the extension so the file type can still be detected.
func downloadName(path string) string {
	if u, err := url.Parse(path); err == nil && u.Path != "" {
		if b := filepath.Base(u.Path); b != "/" && b != "." {
			return b
		}
	}
	return "download"
}
