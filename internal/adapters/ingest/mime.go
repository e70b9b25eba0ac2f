package ingest

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var headerDecoder = mime.WordDecoder{
	CharsetReader: charsetReader,
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeHeader decodes RFC 2047 encoded-words in a header value.
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it collects the text/plain parts; otherwise it
// decodes the body directly.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readPart(msg.Body, contentType, msg.Header.Get("Content-Transfer-Encoding"))
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readPart(msg.Body, contentType, msg.Header.Get("Content-Transfer-Encoding"))
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Return whatever text was collected before the bad part
			break
		}

		partType := part.Header.Get("Content-Type")
		if partType == "" || strings.Contains(strings.ToLower(partType), "text/plain") {
			text, err := readPart(part, partType, part.Header.Get("Content-Transfer-Encoding"))
			if err == nil {
				if textContent.Len() > 0 {
					textContent.WriteString("\n")
				}
				textContent.WriteString(text)
			}
		}
	}

	return textContent.String(), nil
}

// readPart decodes one body or part: transfer encoding first, then the
// declared charset.
func readPart(r io.Reader, contentType, transferEncoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}

	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
			if decoded, err := charsetReader(charset, r); err == nil {
				r = decoded
			}
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
