package storage

import (
	"bytes"
	"io"
	"testing"
)

func TestProgressReaderReachesHundred(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 1000)
	var percents []int
	r := newProgressReader(bytes.NewReader(payload), int64(len(payload)), func(p int) {
		percents = append(percents, p)
	})

	buf := make([]byte, 64)
	for {
		if _, err := r.Read(buf); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("read: %v", err)
		}
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	if got := percents[len(percents)-1]; got != 100 {
		t.Errorf("final percent = %d, want 100", got)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] <= percents[i-1] {
			t.Errorf("progress not monotonic: %v", percents)
			break
		}
	}
}

func TestResumeObjectKey(t *testing.T) {
	if got := ResumeObjectKey(7, "cv.pdf"); got != "resumes/7/cv.pdf" {
		t.Errorf("key = %q", got)
	}
}
