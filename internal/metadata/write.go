package metadata

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Encode writes x as an object keyed by token ID with record entries.
func Encode(w io.Writer, x *Index) error {
	rows := make(map[string]json.RawMessage, len(x.ids))
	for _, id := range x.ids {
		b, err := json.Marshal(x.byID[id])
		if err != nil {
			return err
		}
		rows[strconv.Itoa(id)] = b
	}
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteFile writes x to path, zstd compressed when path ends in .zst.
func WriteFile(path string, x *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	var out io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return err
		}
		out = enc
	}
	bw := bufio.NewWriterSize(out, 256*1024)
	if err := Encode(bw, x); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
