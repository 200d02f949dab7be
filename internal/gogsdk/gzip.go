package gogsdk

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"fmt"
	"io"
)

// EmptyGzipMD5 is the hash of an empty gzip stream as produced by the Galaxy
// client. Cloud entries carrying it are deletion tombstones, never downloaded.
const EmptyGzipMD5 = "aadd86936a80ee8a369579c3926f1b3c"

// gzipLevel matches the Galaxy client so identical content always hashes the same.
const gzipLevel = 6

// GzipCompress compresses data deterministically: fixed compression level and
// a zeroed header mtime, so equal input yields byte-equal output.
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzipLevel)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GzipDecompress inflates a gzip stream.
func GzipDecompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// ContentHash returns the MD5 hex digest of the gzip-compressed content.
// This is the hash the cloud storage API reports for stored objects.
func ContentHash(data []byte) (string, error) {
	compressed, err := GzipCompress(data)
	if err != nil {
		return "", err
	}
	return md5Hex(compressed), nil
}

func md5Hex(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}
