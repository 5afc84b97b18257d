package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/MimeLyc/yt-transcript-extractor/internal/subtitle"
	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
)

type Format string

const (
	FormatTXT  Format = "txt"
	FormatSRT  Format = "srt"
	FormatJSON Format = "json"
)

const (
	mediaTypeText = "text/plain; charset=utf-8"
	mediaTypeJSON = "application/json"

	defaultFilename = "transcript"
	syntheticCueLen = time.Minute
)

// Document is the input of an export: filtered text plus the segments it was
// flattened from, one per line, when timing should be preserved.
type Document struct {
	Title   string
	Text    string
	Timings []transcript.Segment
}

// Artifact is a downloadable rendering of a transcript.
type Artifact struct {
	Content   []byte
	Filename  string
	MediaType string
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTXT:
		return FormatTXT, nil
	case FormatSRT:
		return FormatSRT, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", apperr.New(apperr.ErrValidation, fmt.Sprintf("unsupported export format %q", s)).
			WithContext("format", s)
	}
}

// Serialize renders doc in the given format.
func Serialize(doc Document, format Format) (Artifact, error) {
	switch format {
	case FormatTXT:
		return Artifact{
			Content:   []byte(doc.Text),
			Filename:  Filename(doc.Title, FormatTXT),
			MediaType: mediaTypeText,
		}, nil
	case FormatJSON:
		content, err := encodeJSON(doc)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{
			Content:   content,
			Filename:  Filename(doc.Title, FormatJSON),
			MediaType: mediaTypeJSON,
		}, nil
	case FormatSRT:
		content, err := encodeSRT(doc)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{
			Content:   content,
			Filename:  Filename(doc.Title, FormatSRT),
			MediaType: mediaTypeText,
		}, nil
	default:
		return Artifact{}, apperr.New(apperr.ErrValidation, fmt.Sprintf("unsupported export format %q", format)).
			WithContext("format", string(format))
	}
}

var whitespaceRunRE = regexp.MustCompile(`[\s\p{Zs}]+`)

// Filename replaces whitespace runs in title with underscores and appends the
// format extension. Equal titles produce equal filenames.
func Filename(title string, format Format) string {
	name := whitespaceRunRE.ReplaceAllString(title, "_")
	if strings.Trim(name, "_") == "" {
		name = defaultFilename
	}
	return name + "." + string(format)
}

type jsonDocument struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

func encodeJSON(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonDocument{Title: doc.Title, Transcript: doc.Text}); err != nil {
		return nil, fmt.Errorf("failed to encode json export: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func encodeSRT(doc Document) ([]byte, error) {
	lines := strings.Split(doc.Text, "\n")
	useTimings := hasLineTimings(lines, doc.Timings)

	file := &subtitle.File{Format: "SRT"}
	for i, text := range lines {
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		cue := subtitle.Line{Index: len(file.Lines) + 1, Text: text}
		if useTimings {
			cue.StartTime = doc.Timings[i].StartTime()
			cue.EndTime = doc.Timings[i].EndTime()
		} else {
			cue.StartTime = time.Duration(cue.Index-1) * syntheticCueLen
			cue.EndTime = time.Duration(cue.Index) * syntheticCueLen
		}
		file.Lines = append(file.Lines, cue)
	}

	var buf bytes.Buffer
	if err := subtitle.NewWriter().Write(&buf, file); err != nil {
		return nil, fmt.Errorf("failed to encode srt export: %w", err)
	}
	return buf.Bytes(), nil
}

// hasLineTimings reports whether every line has a timed segment behind it.
func hasLineTimings(lines []string, timings []transcript.Segment) bool {
	if len(timings) == 0 || len(timings) != len(lines) {
		return false
	}
	for _, seg := range timings {
		if !seg.HasTiming {
			return false
		}
	}
	return true
}
