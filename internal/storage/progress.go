package storage

import "io"

// progressReader reports upload progress as a 0-100 percentage while the
// storage client consumes the stream. Each distinct percentage is reported
// at most once, in order.
type progressReader struct {
	inner      io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(percent int)
}

func newProgressReader(inner io.Reader, total int64, onProgress func(percent int)) *progressReader {
	return &progressReader{inner: inner, total: total, last: -1, onProgress: onProgress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.inner.Read(buf)
	if n > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.onProgress(percent)
		}
	}
	return n, err
}
