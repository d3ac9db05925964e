// ABOUTME: Tests for the Ogg page writer
// ABOUTME: Tests checksum, lacing and page header layout
package encode

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOggCRC(t *testing.T) {
	assert.Equal(t, uint32(0x89a1897f), oggCRC([]byte("123456789")))
	assert.Equal(t, uint32(0), oggCRC(nil))
}

func TestOggLacing(t *testing.T) {
	tests := []struct {
		size     int
		segments []byte
	}{
		{0, []byte{0}},
		{10, []byte{10}},
		{255, []byte{255, 0}},
		{600, []byte{255, 255, 90}},
	}

	for _, tt := range tests {
		o := newOggWriter(1)
		require.NoError(t, o.writePacket(make([]byte, tt.size), 0, 0))
		page := o.Bytes()
		n := int(page[26])
		assert.Equal(t, tt.segments, page[27:27+n], "packet of %d bytes", tt.size)
		assert.Len(t, page, oggHeaderSize+n+tt.size)
	}
}

func TestOggPageHeader(t *testing.T) {
	o := newOggWriter(0xabcd)
	require.NoError(t, o.writePacket([]byte("first"), 0, oggBOS))
	require.NoError(t, o.writePacket([]byte("second"), 960, oggEOS))

	pages := splitOggPages(t, o.Bytes())
	require.Len(t, pages, 2)

	assert.Equal(t, byte(oggBOS), pages[0][5])
	assert.Equal(t, byte(oggEOS), pages[1][5])
	assert.Equal(t, uint64(960), binary.LittleEndian.Uint64(pages[1][6:14]))
	assert.Equal(t, uint32(0xabcd), binary.LittleEndian.Uint32(pages[1][14:18]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(pages[1][18:22]))
	assert.True(t, bytes.HasSuffix(pages[1], []byte("second")))

	assert.Error(t, o.writePacket(make([]byte, oggMaxPacket+1), 0, 0))
}

// splitOggPages walks page boundaries and verifies each checksum
func splitOggPages(t *testing.T, data []byte) [][]byte {
	t.Helper()
	var pages [][]byte
	for len(data) > 0 {
		require.GreaterOrEqual(t, len(data), oggHeaderSize)
		require.Equal(t, "OggS", string(data[0:4]))
		n := int(data[26])
		size := oggHeaderSize + n
		for _, seg := range data[oggHeaderSize : oggHeaderSize+n] {
			size += int(seg)
		}
		require.GreaterOrEqual(t, len(data), size)
		page := append([]byte(nil), data[:size]...)

		want := binary.LittleEndian.Uint32(page[22:26])
		binary.LittleEndian.PutUint32(page[22:26], 0)
		assert.Equal(t, want, oggCRC(page), "page %d checksum", len(pages))
		binary.LittleEndian.PutUint32(page[22:26], want)

		pages = append(pages, page)
		data = data[size:]
	}
	return pages
}
