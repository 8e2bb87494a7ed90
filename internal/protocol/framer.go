package protocol

import "bytes"

// Framer reassembles newline-delimited records from arbitrarily split read
// chunks. It keeps any trailing partial record buffered between calls.
type Framer struct {
	buf []byte
}

// Feed appends chunk to the internal buffer and returns every record the
// chunk completes, in arrival order. Empty records (consecutive delimiters)
// are skipped. A zero-length chunk yields no records.
func (f *Framer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)

	var records []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return records
		}
		line := string(f.buf[:i])
		f.buf = f.buf[i+1:]
		if line == "" {
			continue
		}
		records = append(records, line)
	}
}

// Pending reports how many buffered bytes await a closing delimiter.
func (f *Framer) Pending() int {
	return len(f.buf)
}
