package ingest

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fallbackEncodings is the fixed ordered list tried when byte decoding
// fails, mirroring the encodings malformed uploads actually arrive in.
var fallbackEncodings = []struct {
	name string
	enc  *charmap.Charmap
}{
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

// encodingStrategy re-attempts the strict-then-lenient parse after
// transcoding the content from an alternate text encoding.
type encodingStrategy struct{}

func (s *encodingStrategy) Name() string { return "encoding-fallback" }

func (s *encodingStrategy) Attempt(ctx context.Context, src *Source) (*core.Grid, *core.ParseMeta, error) {
	if utf8.Valid(src.Data) {
		return nil, nil, fmt.Errorf("content is valid UTF-8; nothing to transcode")
	}

	delim := src.Delimiter
	if delim == 0 {
		delim = ','
	}

	var lastErr error
	for _, fe := range fallbackEncodings {
		decoded, err := decodeWith(fe.enc, src.Data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", fe.name, err)
			continue
		}

		if grid, meta, err := parseStrict(ctx, decoded, delim); err == nil {
			meta.Warnings = append(meta.Warnings, fmt.Sprintf("decoded as %s", fe.name))
			return grid, meta, nil
		}
		grid, meta, err := parseLenient(ctx, decoded, delim)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", fe.name, err)
			continue
		}
		meta.Warnings = append(meta.Warnings, fmt.Sprintf("decoded as %s", fe.name))
		return grid, meta, nil
	}

	return nil, nil, fmt.Errorf("no fallback encoding produced a parseable table: %v", lastErr)
}

func decodeWith(enc encoding.Encoding, data []byte) ([]byte, error) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return decoded, nil
}
