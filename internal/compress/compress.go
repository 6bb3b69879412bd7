// Package compress implements the run-length prefix compressor: lowercase
// ASCII in, lowercase-ASCII-plus-digits out, never longer than the input.
//
// Codec is a one-method (Encode) interface, registered by a package-level variable
// (Default), kept even though there is only one implementation today, so a
// future scheme could be added without touching internal/server/handler.go.
package compress

import (
	"strconv"

	"github.com/smallnest/rpcx/util"

	"github.com/sparverius/rleserver/internal/bufpool"
	"github.com/sparverius/rleserver/internal/protocol"
)

// Codec compresses a validated payload, or reports why it could not.
type Codec interface {
	Encode(s []byte) ([]byte, protocol.StatusCode)
}

// Default is the run-length prefix compressor.
var Default Codec = runLength{}

// Encode is a package-level convenience wrapping Default.Encode.
func Encode(s []byte) ([]byte, protocol.StatusCode) {
	return Default.Encode(s)
}

type runLength struct{}

func (runLength) Encode(s []byte) ([]byte, protocol.StatusCode) {
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return nil, protocol.StatusPayloadContainsInvalidCharacters
		}
	}

	bb := bufpool.Get()
	defer bufpool.Put(bb)

	i := 0
	for i < len(s) {
		j := i + 1
		for j < len(s) && s[j] == s[i] {
			j++
		}
		n := j - i
		c := s[i]

		if n <= 2 {
			for k := 0; k < n; k++ {
				bb.WriteByte(c)
			}
		} else {
			bb.Write(util.StringToSliceByte(strconv.Itoa(n)))
			bb.WriteByte(c)
		}
		i = j
	}

	if bb.Len() > protocol.MaxPayload {
		return nil, protocol.StatusMessageTooLarge
	}

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out, protocol.StatusOk
}
