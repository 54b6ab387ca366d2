package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/signedstore/internal/record"
)

// readPayload decodes a payload given inline, as @file, or as - for stdin.
func readPayload(arg string, stdin io.Reader) (record.Payload, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case arg == "":
		return nil, fmt.Errorf("--payload is required")
	case arg == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		data, err = os.ReadFile(arg[1:])
	default:
		data = []byte(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	p, err := record.ParsePayload(data)
	if err != nil {
		return nil, record.WrapError(record.CodeInvalidInput, "", "malformed payload", err)
	}
	return p, nil
}
