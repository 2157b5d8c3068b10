// Package lines reads newline separated text one line at a time. Unlike
// bufio.Scanner, an oversized line is reported and skipped instead of ending
// the read.
package lines

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLength is the longest line, in bytes and without its line ending, that
// Next returns in full.
const MaxLength = 4096

// previewLength bounds the text returned with ErrTooLong.
const previewLength = 64

var ErrTooLong = fmt.Errorf("line longer than %d bytes", MaxLength)

type Reader struct {
	br   *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	// Room for MaxLength bytes plus "\r\n".
	return &Reader{br: bufio.NewReaderSize(r, MaxLength+2)}
}

// Line returns the number of the line last returned by Next, starting at 1.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next line without its line ending. It returns io.EOF once
// the input is exhausted. A line longer than MaxLength is consumed and
// returned truncated along with ErrTooLong; the following call carries on
// with the next line.
func (r *Reader) Next() (string, error) {
	chunk, err := r.br.ReadSlice('\n')
	if len(chunk) == 0 && err != nil {
		return "", err
	}
	r.line++

	if errors.Is(err, bufio.ErrBufferFull) {
		preview := string(chunk[:previewLength])
		if err := r.discardLine(); err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return preview, ErrTooLong
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	text := strings.TrimRight(string(chunk), "\r\n")
	if len(text) > MaxLength {
		return text[:previewLength], ErrTooLong
	}
	return text, nil
}

// discardLine drops input up to and including the next newline.
func (r *Reader) discardLine() error {
	for {
		_, err := r.br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
