package sniffer

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
)

// sniffLen matches the window net/http uses for content sniffing.
const sniffLen = 512

// ErrUnknownType is returned for anything that is not a raster image a page
// or reference photo can be stored as.
var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

// Ext is the file extension used for object keys and EPUB entries.
func (r Result) Ext() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

type signature struct {
	offset int
	magic  []byte
	result Result
}

// webp needs a second check at offset 8, handled in match.
var signatures = []signature{
	{0, []byte{0xff, 0xd8, 0xff}, Result{TypeJPEG, "image/jpeg"}},
	{0, []byte("\x89PNG\r\n\x1a\n"), Result{TypePNG, "image/png"}},
	{0, []byte("GIF87a"), Result{TypeGIF, "image/gif"}},
	{0, []byte("GIF89a"), Result{TypeGIF, "image/gif"}},
	{0, []byte("RIFF"), Result{TypeWEBP, "image/webp"}},
}

func (s signature) match(head []byte) bool {
	end := s.offset + len(s.magic)
	if len(head) < end || !bytes.Equal(head[s.offset:end], s.magic) {
		return false
	}
	if s.result.Type == TypeWEBP {
		return len(head) >= 12 && string(head[8:12]) == "WEBP"
	}
	return true
}

// Detect reads up to the sniffing window from r and classifies it. The bytes
// read are returned so callers can stitch the stream back together.
func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	res, err := DetectHead(head)
	return res, head, err
}

func DetectHead(head []byte) (Result, error) {
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// MimeTypeFromHTTP returns the declared media type of a response with any
// parameters stripped.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mediaType
}
