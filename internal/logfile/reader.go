// Package logfile reads v8 logs from disk. Logs may be stored plain,
// gzipped, or inside a zip archive next to other files.
package logfile

import (
	"bytes"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
)

// ErrNoLog is returned when an archive holds no v8 log.
var ErrNoLog = errors.New("archive contains no v8 log")

// Read returns the contents of the v8 log at filePath.
func Read(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Wrap(err, "failed to read log")
	}

	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return readGzip(data)
	case bytes.HasPrefix(data, zipMagic):
		return readZip(data)
	}
	return string(data), nil
}

func readGzip(data []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "failed to open gzip stream")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to decompress log")
	}
	return string(out), nil
}

// readZip picks the log entry out of the archive. node --prof names its
// output isolate-<addr>-<pid>-v8.log; those win over other *.log entries.
func readZip(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "failed to open zip file")
	}

	var candidates []*zip.File
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(file.Name, ".log") {
			continue
		}
		candidates = append(candidates, file)
	}
	if len(candidates) == 0 {
		return "", ErrNoLog
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i].Name) < rank(candidates[j].Name)
	})

	file := candidates[0]
	rc, err := file.Open()
	if err != nil {
		return "", errors.Wrapf(err, "failed to open file %s in zip", file.Name)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", file.Name)
	}
	return string(out), nil
}

func rank(name string) int {
	base := path.Base(name)
	switch {
	case strings.HasPrefix(base, "isolate-") && strings.HasSuffix(base, "-v8.log"):
		return 0
	case strings.HasSuffix(base, "v8.log"):
		return 1
	}
	return 2
}
