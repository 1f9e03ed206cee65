/*
Copyright © 2024 the colocate authors.
This file is part of colocate.

colocate is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colocate is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colocate.  If not, see <http://www.gnu.org/licenses/>.
*/

package colocateutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "colocateutil")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func nullLog() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

// noRetry makes failed downloads fail straight away.
func noRetry(t *testing.T) {
	old := newBackOff
	newBackOff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }
	t.Cleanup(func() { newBackOff = old })
}

func fileServer(t *testing.T, files ...string) string {
	dir := tempDir(t)
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(f), 0644))
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestMaybeDownloadLocal(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/dev/null", nullLog()); err != nil || k != "/dev/null" {
		t.Error("Expected /dev/null, got ", k, err)
	}
}

func TestMaybeDownloadLocal2(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/blah/test/", nullLog()); err != nil || k != "/blah/test/" {
		t.Error("Expected /blah/test/, got ", k, err)
	}
}

func TestMaybeDownloadRemoteFail(t *testing.T) {
	noRetry(t)
	url := fileServer(t)
	if _, err := maybeDownload(context.Background(), url+"/missing.nc", nullLog()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	url := fileServer(t, "points.shp", "points.dbf", "points.shx", "points.prj")
	k, err := maybeDownload(context.Background(), url+"/points.shp", nullLog())
	require.NoError(t, err)
	if !strings.HasSuffix(k, "points.shp") {
		t.Error("Expected tempDir/points.shp, got ", k)
	}
	defer os.RemoveAll(filepath.Dir(k))
	for _, ext := range []string{".shp", ".dbf", ".shx", ".prj"} {
		b, err := os.ReadFile(strings.TrimSuffix(k, ".shp") + ext)
		require.NoError(t, err, ext)
		assert.Equal(t, "points"+ext, string(b))
	}
}

func TestBlobRoundTrip(t *testing.T) {
	// File buckets are named by a directory relative to the working
	// directory.
	const bucket = "tmp_bucket"
	require.NoError(t, os.MkdirAll(bucket, os.ModePerm))
	defer os.RemoveAll(bucket)
	ctx := context.Background()

	var u uploader
	local := u.maybeUpload("file://" + bucket + "/out.nc")
	require.NoError(t, u.err)
	assert.NotEqual(t, "file://"+bucket+"/out.nc", local)
	defer os.RemoveAll(u.dir)
	require.NoError(t, os.WriteFile(local, []byte("results"), 0644))
	require.NoError(t, u.uploadOutput(ctx))

	k, err := maybeDownload(ctx, "file://"+bucket+"/out.nc", nullLog())
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(k))
	b, err := os.ReadFile(k)
	require.NoError(t, err)
	assert.Equal(t, "results", string(b))

	assert.Equal(t, "local.nc", (&uploader{}).maybeUpload("local.nc"))
}

func TestExpandShp(t *testing.T) {
	assert.Equal(t, []string{"a.nc"}, expandShp("a.nc"))
	assert.Equal(t, []string{"d/a.shp", "d/a.dbf", "d/a.shx", "d/a.prj"}, expandShp("d/a.shp"))
}
