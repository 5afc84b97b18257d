package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// SRTWriter encodes SRT documents.
type SRTWriter struct{}

func NewWriter() Writer {
	return &SRTWriter{}
}

// Write emits every line as index, timing, text and a blank separator line.
func (w *SRTWriter) Write(out io.Writer, subtitle *File) error {
	if subtitle == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	writer := bufio.NewWriter(out)
	for _, line := range subtitle.Lines {
		if _, err := fmt.Fprintf(writer, "%d\n%s --> %s\n%s\n\n",
			line.Index,
			FormatDuration(line.StartTime),
			FormatDuration(line.EndTime),
			line.Text,
		); err != nil {
			return fmt.Errorf("failed to write subtitle line %d: %w", line.Index, err)
		}
	}
	return writer.Flush()
}

// FormatDuration formats d as HH:MM:SS,mmm.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
