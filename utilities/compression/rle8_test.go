package compression_test

import (
	"bytes"
	"io"
	"testing"

	dt "github.com/dargueta/fat12fs/testing"
	c "github.com/dargueta/fat12fs/utilities/compression"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rle8TestCase struct {
	Name     string
	Input    []byte
	Expected []byte
}

func TestCompressRLE8(t *testing.T) {
	tests := []rle8TestCase{
		{"empty", []byte{}, []byte{}},
		{"pair only", []byte{4, 4}, []byte{4, 4, 0}},
		{"no runs", []byte{0, 1, 2, 3, 4}, []byte{0, 1, 2, 3, 4}},
		{"pair at end", []byte{6, 1, 3, 0, 0}, []byte{6, 1, 3, 0, 0, 0}},
		{"three at end", []byte{6, 1, 0, 0, 0}, []byte{6, 1, 0, 0, 1}},
		{"short run", []byte{9, 5, 5, 5, 5, 5, 3, 7}, []byte{9, 5, 5, 3, 3, 7}},
		{
			"adjacent runs",
			[]byte{9, 5, 5, 5, 5, 5, 5, 3, 3, 3, 3, 7, 2, 6},
			[]byte{9, 5, 5, 4, 3, 3, 2, 7, 2, 6},
		},
		{
			"long run",
			bytes.Repeat([]byte{5}, 1024),
			[]byte{5, 5, 255, 5, 5, 255, 5, 5, 255, 5, 5, 251},
		},
		{"257", bytes.Repeat([]byte{8}, 257), []byte{8, 8, 255}},
		{"258", bytes.Repeat([]byte{8}, 258), []byte{8, 8, 255, 8}},
		{"259", bytes.Repeat([]byte{8}, 259), []byte{8, 8, 255, 8, 8, 0}},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				output := make([]byte, len(test.Expected)*2)
				n, err := c.CompressRLE8(bytes.NewReader(test.Input), bytewriter.New(output))
				require.NoError(t, err)
				assert.EqualValues(t, len(test.Expected), n, "bytes written is wrong")
				assert.Equal(t, test.Expected, output[:n])
			},
		)
	}
}

func TestRLE8RoundTrip(t *testing.T) {
	tests := map[string][]byte{
		"random":   dt.RandomBytes(t, 1852),
		"nulls":    make([]byte, 571),
		"non-null": bytes.Repeat([]byte{182}, 934),
		"empty":    {},
	}

	for name, original := range tests {
		t.Run(
			name,
			func(t *testing.T) {
				// Random data can grow when "compressed".
				compressed := make([]byte, len(original)*2)
				n, err := c.CompressRLE8(bytes.NewReader(original), bytewriter.New(compressed))
				require.NoError(t, err)

				output := make([]byte, len(original))
				m, err := c.DecompressRLE8(
					bytes.NewReader(compressed[:n]), bytewriter.New(output))
				require.NoError(t, err)
				assert.EqualValues(t, len(original), m)
				assert.Equal(t, original, output)
			},
		)
	}
}

func TestDecompressRLE8__MissingRepeatCount(t *testing.T) {
	output := make([]byte, 16)
	_, err := c.DecompressRLE8(bytes.NewReader([]byte{9, 1, 4, 4}), bytewriter.New(output))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
