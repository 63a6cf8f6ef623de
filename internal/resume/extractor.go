package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// ErrUnreadable indicates the document could not be turned into text.
var ErrUnreadable = errors.New("resume could not be parsed")

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	namePattern  = regexp.MustCompile(`(?i)(?:full name|name)[:\s]+([a-zA-Z \t]+)`)
	lettersOnly  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// Parsed is the text and contact details found in a resume.
type Parsed struct {
	Text     string
	Name     string
	Email    string
	Phone    string
	FileName string
}

// ConvertFunc turns a document of the given MIME type into plain text.
type ConvertFunc func(r io.Reader, mimeType string) (string, error)

// Extractor reads resumes uploaded by candidates.
type Extractor struct {
	convert ConvertFunc
	logger  zerolog.Logger
}

// NewExtractor builds an extractor backed by docconv. A nil convert uses docconv.
func NewExtractor(convert ConvertFunc, logger zerolog.Logger) *Extractor {
	if convert == nil {
		convert = convertWithDocconv
	}
	return &Extractor{
		convert: convert,
		logger:  logger.With().Str("component", "resume_extractor").Logger(),
	}
}

// Extract converts the document and pulls out the candidate's name, email and phone where they
// can be found. Missing fields are left blank for manual entry.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (Parsed, error) {
	if err := ctx.Err(); err != nil {
		return Parsed{}, err
	}

	mime := DetectType(data)
	text, err := e.convert(bytes.NewReader(data), mime)
	if err != nil {
		e.logger.Warn().Err(err).Str("file_name", fileName).Msg("resume conversion failed")
		return Parsed{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	parsed := ExtractInfo(text)
	parsed.Text = text
	parsed.FileName = fileName

	e.logger.Debug().
		Str("file_name", fileName).
		Bool("name_found", parsed.Name != "").
		Bool("email_found", parsed.Email != "").
		Bool("phone_found", parsed.Phone != "").
		Msg("resume extracted")

	return parsed, nil
}

// ExtractInfo finds contact details in resume text.
func ExtractInfo(text string) Parsed {
	var parsed Parsed

	if match := emailPattern.FindString(text); match != "" {
		parsed.Email = match
	}

	if match := phonePattern.FindString(text); match != "" {
		parsed.Phone = match
	}

	if match := namePattern.FindStringSubmatch(text); match != nil {
		parsed.Name = strings.TrimSpace(match[1])
	} else {
		firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
		if firstLine != "" && len(firstLine) < 50 && lettersOnly.MatchString(firstLine) {
			parsed.Name = firstLine
		}
	}

	return parsed
}

// DetectType returns the MIME type sniffed from the document bytes.
func DetectType(data []byte) string {
	detected := mimetype.Detect(data)
	switch {
	case detected.Is(MimePDF):
		return MimePDF
	case detected.Is(MimeDOCX):
		return MimeDOCX
	default:
		return detected.String()
	}
}

// IsAllowedType reports whether the document is a PDF or DOCX file.
func IsAllowedType(data []byte) bool {
	switch DetectType(data) {
	case MimePDF, MimeDOCX:
		return true
	default:
		return false
	}
}

// IsWithinSizeLimit reports whether size bytes fit in maxMB megabytes.
func IsWithinSizeLimit(size int64, maxMB int) bool {
	return size >= 0 && size <= int64(maxMB)*1024*1024
}

func convertWithDocconv(r io.Reader, mimeType string) (string, error) {
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", errors.New("document contains no text")
	}
	return text, nil
}
