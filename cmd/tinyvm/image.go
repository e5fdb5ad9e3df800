// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/ezrec/tinyvm/translate"
)

var f = translate.From

var ErrImageOdd = errors.New(f("image has an odd number of bytes"))

// ReadImage reads a program image of little-endian 16-bit words.
func ReadImage(in io.Reader) (bins []uint16, err error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return
	}

	if len(data)%2 != 0 {
		err = ErrImageOdd
		return
	}

	bins = make([]uint16, len(data)/2)
	for n := range bins {
		bins[n] = binary.LittleEndian.Uint16(data[n*2:])
	}

	return
}

// WriteImage writes a program image of little-endian 16-bit words.
func WriteImage(out io.Writer, bins []uint16) (err error) {
	data := make([]byte, 0, len(bins)*2)
	for _, word := range bins {
		data = binary.LittleEndian.AppendUint16(data, word)
	}

	_, err = out.Write(data)
	return
}
