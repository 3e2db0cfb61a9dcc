package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Image describes where a program image landed in memory.
type Image struct {
	Origin  Word
	Words   int // words copied into memory
	Dropped int // words past the end of memory
}

// End is the address after the last loaded word.
func (img Image) End() int {
	return int(img.Origin) + img.Words
}

// Load copies a big-endian image into memory: the first word is the
// origin, every following word is stored at consecutive addresses from it.
// A trailing odd byte is ignored and an image shorter than one word loads
// nothing.
func (mem *Memory) Load(r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, err
	}
	if len(data) < 2 {
		return Image{}, nil
	}

	img := Image{Origin: Word(binary.BigEndian.Uint16(data))}
	addr := int(img.Origin)
	for j := 2; j+1 < len(data); j += 2 {
		if addr >= MemorySize {
			img.Dropped++
			continue
		}
		mem.cells[addr] = Word(binary.BigEndian.Uint16(data[j:]))
		addr++
		img.Words++
	}
	return img, nil
}

func (mem *Memory) LoadFile(path string) (Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("load image %s: %w", path, err)
	}
	defer file.Close()

	img, err := mem.Load(file)
	if err != nil {
		return Image{}, fmt.Errorf("load image %s: %w", path, err)
	}
	return img, nil
}
