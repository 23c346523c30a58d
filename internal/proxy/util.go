package proxy

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cspderive/cspderive/internal/report"
)

func readAndClose(r io.ReadCloser) ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r)
}

func newBodyReadCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func marshalReportingGroup(g report.ReportingGroup) (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
