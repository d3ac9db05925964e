// ABOUTME: Ogg page writer
// ABOUTME: Frames packets into checksummed Ogg pages, one packet per page
package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Ogg page header flags
const (
	oggBOS = 0x02
	oggEOS = 0x04
)

const (
	oggHeaderSize  = 27
	oggMaxSegments = 255
	oggMaxPacket   = oggMaxSegments*255 - 1
)

// oggCRCTable is CRC-32 with polynomial 0x04c11db7, unreflected
var oggCRCTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// oggWriter appends pages for a single logical stream
type oggWriter struct {
	buf    bytes.Buffer
	serial uint32
	seq    uint32
}

func newOggWriter(serial uint32) *oggWriter {
	return &oggWriter{serial: serial}
}

// writePacket emits packet as one complete page
func (o *oggWriter) writePacket(packet []byte, granule uint64, flags byte) error {
	if len(packet) > oggMaxPacket {
		return fmt.Errorf("ogg packet too large: %d bytes", len(packet))
	}

	// Lacing: runs of 255 then a terminating shorter segment, possibly 0
	segments := make([]byte, 0, len(packet)/255+1)
	for n := len(packet); ; n -= 255 {
		if n < 255 {
			segments = append(segments, byte(n))
			break
		}
		segments = append(segments, 255)
	}

	page := make([]byte, oggHeaderSize, oggHeaderSize+len(segments)+len(packet))
	copy(page[0:4], "OggS")
	page[4] = 0
	page[5] = flags
	binary.LittleEndian.PutUint64(page[6:14], granule)
	binary.LittleEndian.PutUint32(page[14:18], o.serial)
	binary.LittleEndian.PutUint32(page[18:22], o.seq)
	page[26] = byte(len(segments))
	page = append(page, segments...)
	page = append(page, packet...)

	binary.LittleEndian.PutUint32(page[22:26], oggCRC(page))

	o.seq++
	o.buf.Write(page)
	return nil
}

func (o *oggWriter) Bytes() []byte {
	return o.buf.Bytes()
}
