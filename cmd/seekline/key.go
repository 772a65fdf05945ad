package main

import (
	"bytes"
	"flag"
	"math"
	"strconv"

	"github.com/hupe1980/seekline"
)

// keySpec extracts the sort key of a line.
type keySpec struct {
	field   int
	delim   string
	width   int
	numeric bool

	logger *seekline.Logger
}

func (k *keySpec) register(fs *flag.FlagSet) {
	fs.IntVar(&k.field, "field", 0, "1-based key field; 0 uses the whole line")
	fs.StringVar(&k.delim, "delim", "", "field delimiter (default: runs of whitespace)")
	fs.IntVar(&k.width, "width", 0, "compare only the first n bytes of the key (0 = all)")
	fs.BoolVar(&k.numeric, "numeric", false, "compare keys as numbers; keys that do not parse sort before all others")
}

func (k keySpec) extract(line []byte) []byte {
	if k.field > 0 {
		var fields [][]byte
		if k.delim == "" {
			fields = bytes.Fields(line)
		} else {
			fields = bytes.Split(line, []byte(k.delim))
		}
		if k.field > len(fields) {
			return nil
		}
		line = fields[k.field-1]
	}
	if k.width > 0 && len(line) > k.width {
		line = line[:k.width]
	}
	return line
}

func (k keySpec) stringKey(line []byte) string {
	return string(k.extract(line))
}

// numberKey sorts lines without a numeric key, such as headers, first.
func (k keySpec) numberKey(line []byte) float64 {
	raw := bytes.TrimSpace(k.extract(line))
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		if k.logger != nil {
			k.logger.Debug("key is not numeric, sorting it first", "key", string(raw))
		}
		return math.Inf(-1)
	}
	return v
}
