package mycontentapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	types "github.com/desain-gratis/media-console/types/http"
)

const ndjson = "application/x-ndjson"

// ProgressLine is one line of a streamed mutation response. Every line but the
// last carries only progress; the last carries either Result or Error.
type ProgressLine struct {
	Percent          int                `json:"percent"`
	BytesTransferred int64              `json:"bytes_transferred"`
	TotalBytes       int64              `json:"total_bytes"`
	Result           *MutationResult    `json:"result,omitempty"`
	Error            *types.CommonError `json:"error,omitempty"`
}

func wantsProgress(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), ndjson)
}

// progressStream writes upload progress as newline delimited JSON.
// The status line is sent on the first write, so an error that happens before
// any progress still gets its own status code.
type progressStream struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flusher http.Flusher

	started bool
	ended   bool
	last    blob.Progress
}

func newProgressStream(w http.ResponseWriter) *progressStream {
	flusher, _ := w.(http.Flusher)
	return &progressStream{
		w:       w,
		enc:     json.NewEncoder(w),
		flusher: flusher,
	}
}

func (s *progressStream) start(status int) {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", ndjson)
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(status)
}

func (s *progressStream) write(line ProgressLine) {
	if err := s.enc.Encode(line); err != nil {
		log.Warn().Err(err).Msg("failed to write progress, client gone")
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// Progress is a mycontent.ProgressFunc
func (s *progressStream) Progress(p blob.Progress) {
	if s.ended {
		return
	}
	s.start(http.StatusOK)
	s.last = p
	s.write(ProgressLine{
		Percent:          p.Percent(),
		BytesTransferred: p.BytesTransferred,
		TotalBytes:       p.TotalBytes,
	})
}

func (s *progressStream) Success(result *MutationResult) {
	if s.ended {
		return
	}
	s.ended = true
	s.start(http.StatusOK)

	total := s.last.TotalBytes
	if total <= 0 {
		total = s.last.BytesTransferred
	}
	s.write(ProgressLine{
		Percent:          100,
		BytesTransferred: s.last.BytesTransferred,
		TotalBytes:       total,
		Result:           result,
	})
}

func (s *progressStream) Fail(status int, errUC *types.CommonError) {
	if s.ended {
		return
	}
	s.ended = true
	s.start(status)
	s.write(ProgressLine{
		Percent:          s.last.Percent(),
		BytesTransferred: s.last.BytesTransferred,
		TotalBytes:       s.last.TotalBytes,
		Error:            errUC,
	})
}
