package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotPDF is returned when a file does not start with a PDF header
var ErrNotPDF = errors.New("not a PDF file")

var pdfMagic = []byte("%PDF-")

// Sniff checks that path names a readable file that looks like a PDF. The
// header may be preceded by junk bytes, as many writers allow up to 1024.
func Sniff(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	return nil
}
