// Package streamcodec implements the five-tag, newline-delimited wire
// protocol between the orchestrator and the client: STATUS, DATA,
// MODEL_RESPONSES, SUMMARY_EXECUTED and ERROR frames, each one line,
// prefix-tagged, flushed as soon as it is written so a client streaming the
// response sees it immediately.
package streamcodec

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

// Tag identifies a frame's kind — the fixed prefix before the first colon.
type Tag string

const (
	TagStatus          Tag = "STATUS"
	TagData            Tag = "DATA"
	TagModelResponses  Tag = "MODEL_RESPONSES"
	TagSummaryExecuted Tag = "SUMMARY_EXECUTED"
	TagError           Tag = "ERROR"
)

// Writer serialises frames onto an underlying io.Writer, flushing after
// every write when the writer also implements http.Flusher — an SSE-style
// streaming pattern adapted to this module's own line protocol instead of
// text/event-stream.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewWriter wraps w. If w also implements http.Flusher (as an
// http.ResponseWriter does), every frame is flushed immediately after being
// written.
func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

func (sw *Writer) writeLine(tag Tag, body string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := fmt.Fprintf(sw.w, "%s:%s\n", tag, body); err != nil {
		return fmt.Errorf("streamcodec: write %s frame: %w", tag, err)
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Data implements core.FrameSink, emitting one fragment of the final
// assistant answer.
func (sw *Writer) Data(chunk string) error {
	return sw.writeLine(TagData, chunk)
}

// Status implements core.FrameSink, emitting a progress indicator ahead of
// running step.
func (sw *Writer) Status(step string) error {
	return sw.writeLine(TagStatus, "STEP:"+step)
}

// Summary implements core.FrameSink, emitted iff the summariser ran.
func (sw *Writer) Summary(history []core.Message) error {
	body, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("streamcodec: marshal summary history: %w", err)
	}
	return sw.writeLine(TagSummaryExecuted, string(body))
}

// ModelResponses emits exactly one per successful request, carrying the
// per-model replies the UI should display.
func (sw *Writer) ModelResponses(replies []core.ModelReply) error {
	if replies == nil {
		replies = []core.ModelReply{}
	}
	body, err := json.Marshal(replies)
	if err != nil {
		return fmt.Errorf("streamcodec: marshal model responses: %w", err)
	}
	return sw.writeLine(TagModelResponses, string(body))
}

// Error emits a fatal ERROR frame. No further frames may follow it.
func (sw *Writer) Error(message string) error {
	return sw.writeLine(TagError, message)
}

// FrameWriter is the full frame-emitting surface the orchestrator needs:
// core.FrameSink (shared with the step library) plus the two frames only
// the orchestrator itself ever emits. *Writer implements it.
type FrameWriter interface {
	core.FrameSink
	ModelResponses(replies []core.ModelReply) error
	Error(message string) error
}

// Frame is a single decoded line, used by clients and by this package's own
// tests to verify what Writer produced.
type Frame struct {
	Tag  Tag
	Body string
}

// ParseFrame splits one line on its first colon-delimited tag. Lines not
// matching any known tag are reported with ok=false so callers can ignore
// them.
func ParseFrame(line string) (Frame, bool) {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return Frame{}, false
	}
	tag := Tag(line[:idx])
	switch tag {
	case TagStatus, TagData, TagModelResponses, TagSummaryExecuted, TagError:
		return Frame{Tag: tag, Body: line[idx+1:]}, true
	default:
		return Frame{}, false
	}
}

// ParseFrames splits a complete buffered response body into its constituent
// frames, for tests driving the orchestrator end-to-end without a live HTTP
// transport.
func ParseFrames(body string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		if f, ok := ParseFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}
