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
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/adm1char/cloud"
)

// newBackOff returns the retry policy for blob and http transfers.
var newBackOff = func(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
}

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// uploadOutput copies any files registered with maybeUpload
// to blob storage.
func (u *uploader) uploadOutput(ctx context.Context, log logrus.FieldLogger) error {
	if u.err != nil {
		return u.err
	}
	for _, files := range u.files {
		b, err := ioutil.ReadFile(files[0])
		if err != nil {
			return fmt.Errorf("adm1util: opening file '%s' for upload: %s", files[0], err)
		}
		err = backoff.RetryNotify(
			func() error {
				return cloud.WriteBlob(ctx, files[1], b)
			},
			newBackOff(ctx),
			func(err error, d time.Duration) {
				log.WithError(err).WithField("file", files[1]).Warnf("upload failed; retrying in %v", d)
			},
		)
		if err != nil {
			return fmt.Errorf("adm1util: uploading file '%s' to '%s': %s", files[0], files[1], err)
		}
		log.WithField("file", files[1]).Info("uploaded output")
	}
	return nil
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// uploadOutput method is run.
func (u *uploader) maybeUpload(path string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if !cloud.IsBlob(path) {
		return path, nil
	}
	if u.dir == "" {
		u.dir, u.err = ioutil.TempDir("", "adm1char")
		if u.err != nil {
			u.err = fmt.Errorf("adm1util: creating temporary upload directory: %v", u.err)
			return "", u.err
		}
	}
	local := filepath.Join(u.dir, fmt.Sprintf("%d_%s", len(u.files), filepath.Base(path)))
	u.files = append(u.files, [2]string{local, path})
	return local, nil
}
