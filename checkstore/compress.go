package checkstore

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

func Compress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, r); err != nil {
		return nil, errors.Wrap(err, "error compressing blob")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "error compressing blob")
	}
	return w.Bytes(), nil
}

func Decompress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zr := lz4.NewReader(r)
	if _, err := io.Copy(w, zr); err != nil {
		return nil, errors.Wrap(err, "error decompressing blob")
	}
	return w.Bytes(), nil
}
