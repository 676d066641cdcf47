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
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/adm1char/cloud"
)

func TestUploader(t *testing.T) {
	fastBackOff(t)
	bucket := testBucket(t)
	var up uploader
	if local, err := up.maybeUpload("results.csv"); err != nil || local != "results.csv" {
		t.Errorf("local files should not be uploaded, have %s, %v", local, err)
	}
	local, err := up.maybeUpload(bucket + "/out/results.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(up.dir)
	if !strings.HasSuffix(local, "0_results.csv") {
		t.Errorf("temporary file name %s", local)
	}
	if err := ioutil.WriteFile(local, []byte("name,Q_D\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := up.uploadOutput(ctx, testLogger()); err != nil {
		t.Fatal(err)
	}
	b, err := cloud.ReadBlob(ctx, bucket+"/out/results.csv")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "name,Q_D\n" {
		t.Errorf("uploaded %q", b)
	}
}

func TestUploaderMissingFile(t *testing.T) {
	fastBackOff(t)
	bucket := testBucket(t)
	var up uploader
	if _, err := up.maybeUpload(bucket + "/out/never_written.csv"); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(up.dir)
	if err := up.uploadOutput(context.Background(), testLogger()); err == nil {
		t.Error("expected an error for a file that was never written")
	}
}

func TestBatchCommandBlob(t *testing.T) {
	fastBackOff(t)
	bucket := testBucket(t)
	b, err := ioutil.ReadFile("testdata/samples.csv")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := cloud.WriteBlob(ctx, bucket+"/in/samples.csv", b); err != nil {
		t.Fatal(err)
	}
	setCfg(t, map[string]interface{}{
		"SamplesFile": bucket + "/in/samples.csv",
		"ResultsFile": bucket + "/out/results.xlsx",
		"LogFile":     bucket + "/out/batch.log",
	})
	execute(t, "batch")

	for _, f := range []string{"results.xlsx", "batch.log"} {
		if _, err := cloud.ReadBlob(ctx, bucket+"/out/"+f); err != nil {
			t.Errorf("%s was not uploaded: %v", f, err)
		}
	}
}

func TestUploaderTempDirError(t *testing.T) {
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))
	var up uploader
	if _, err := up.maybeUpload("file://adm1testbucket/out/results.csv"); err == nil {
		t.Fatal("expected an error when the temporary directory cannot be created")
	}
	var buf bytes.Buffer
	_, _, err := startLog(&buf, "info", "file://adm1testbucket/out/batch.log", &up)
	if err == nil || !strings.Contains(err.Error(), "temporary upload directory") {
		t.Errorf("startLog should report the upload directory error, have %v", err)
	}
	if err := up.uploadOutput(context.Background(), testLogger()); err == nil {
		t.Error("uploadOutput should report the upload directory error")
	}
}
