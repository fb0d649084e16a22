package landsat

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/venicegeo/bf-metadata-summary/util"
)

type gzipReadCloser struct {
	*gzip.Reader
	source io.Closer
}

func (g gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if sourceErr := g.source.Close(); err == nil {
		err = sourceErr
	}
	return err
}

// openReader opens a bulk metadata file from a local path or an http(s) URL,
// decompressing it when it is gzipped
func openReader(ctx context.Context, logCtx util.LogContext, client *http.Client, location string, useGzip bool) (io.ReadCloser, error) {
	var (
		sourceReader io.ReadCloser
		err          error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		util.LogInfo(logCtx, "Requesting url: "+location)
		sourceReader, err = openURL(ctx, client, location)
	} else {
		cleanPath := filepath.Clean(location)
		util.LogInfo(logCtx, "Opening file "+cleanPath)
		sourceReader, err = os.Open(cleanPath)
	}
	if err != nil {
		return nil, err
	}

	if !useGzip && !strings.HasSuffix(strings.ToLower(location), ".gz") {
		return sourceReader, nil
	}
	archiveReader, err := gzip.NewReader(sourceReader)
	if err != nil {
		sourceReader.Close()
		return nil, fmt.Errorf("error opening gzip archive: %w", err)
	}
	return gzipReadCloser{Reader: archiveReader, source: sourceReader}, nil
}

func openURL(ctx context.Context, client *http.Client, location string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode >= 400 {
		response.Body.Close()
		return nil, util.HTTPErr{Status: response.StatusCode, Message: response.Status}
	}
	return response.Body, nil
}
