package resp

import (
	"bytes"
	"errors"
	"strconv"
)

var (
	// ErrIncomplete means the buffer holds only a fragment of a request.
	// No bytes were consumed; the caller should wait for more input.
	ErrIncomplete = errors.New("incomplete request")

	// ErrMalformed means the buffer does not start with a well-formed
	// request array. The connection buffer is unrecoverable.
	ErrMalformed = errors.New("malformed request")
)

// DecodeCommand decodes one framed request, an array of bulk strings,
// from the front of buf. It returns the element payloads and the number
// of bytes consumed. On ErrIncomplete no bytes are consumed and the
// caller retries once more data has arrived.
func DecodeCommand(buf []byte) ([][]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	if buf[0] != byte(Array) {
		return nil, 0, ErrMalformed
	}

	count, pos, err := readLine(buf, 1)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, ErrMalformed
	}

	args := make([][]byte, 0, count)

	for i := 0; i < count; i++ {
		if pos >= len(buf) {
			return nil, 0, ErrIncomplete
		}
		if buf[pos] != byte(BulkString) {
			return nil, 0, ErrMalformed
		}

		length, next, err := readLine(buf, pos+1)
		if err != nil {
			return nil, 0, err
		}
		if length < 0 {
			return nil, 0, ErrMalformed
		}

		if next+length+2 > len(buf) {
			return nil, 0, ErrIncomplete
		}
		if buf[next+length] != '\r' || buf[next+length+1] != '\n' {
			return nil, 0, ErrMalformed
		}

		args = append(args, buf[next:next+length])
		pos = next + length + 2
	}

	return args, pos, nil
}

// readLine parses the decimal integer starting at start and terminated
// by CRLF. It returns the integer and the offset just past the CRLF.
func readLine(buf []byte, start int) (int, int, error) {
	end := bytes.Index(buf[start:], []byte("\r\n"))
	if end == -1 {
		return 0, 0, ErrIncomplete
	}

	n, err := strconv.Atoi(string(buf[start : start+end]))
	if err != nil {
		return 0, 0, ErrMalformed
	}

	return n, start + end + 2, nil
}
