/*
Copyright © 2021 Billy G. Allie <bill.allie@defiant.mug.org>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bgallie/filters/pem"
)

const (
	headerMagic = "+SPN"
	pemType     = "SPN Encrypted Message"
)

var errBadHeader = errors.New("malformed encrypted file header")

// header describes an encrypted file: the API level that wrote it, the
// original file name, the encoding, whether the plaintext was compressed,
// the block index of the first block and the plaintext size in bytes.
type header struct {
	apiLevel    int
	fileName    string
	ascii85     bool
	compression bool
	index       uint64
	size        int64
}

// String formats the header line written in front of binary and ASCII85
// output:
//
//	+SPN|apiLevel|fileName|a or b|compression|index|size
func (h *header) String() string {
	enc := "b"
	if h.ascii85 {
		enc = "a"
	}
	return fmt.Sprintf("%s|%d|%s|%s|%v|%d|%d\n",
		headerMagic, h.apiLevel, h.fileName, enc, h.compression, h.index, h.size)
}

// parseHeader parses a line produced by header.String.  The file name may
// itself contain '|', so the fixed fields are taken from both ends.
func parseHeader(line string) (header, error) {
	var h header
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "|")
	if len(fields) < 7 || fields[0] != headerMagic {
		return h, errBadHeader
	}

	n := len(fields)
	var err error
	if h.apiLevel, err = strconv.Atoi(fields[1]); err != nil {
		return h, fmt.Errorf("%w: api level: %v", errBadHeader, err)
	}
	h.fileName = strings.Join(fields[2:n-4], "|")
	switch fields[n-4] {
	case "a":
		h.ascii85 = true
	case "b":
	default:
		return h, fmt.Errorf("%w: unknown encoding [%s]", errBadHeader, fields[n-4])
	}
	h.compression = fields[n-3] == "true"
	if h.index, err = strconv.ParseUint(fields[n-2], 10, 64); err != nil {
		return h, fmt.Errorf("%w: index: %v", errBadHeader, err)
	}
	if h.size, err = strconv.ParseInt(fields[n-1], 10, 64); err != nil || h.size < 0 {
		return h, fmt.Errorf("%w: size [%s]", errBadHeader, fields[n-1])
	}

	return h, nil
}

func (h *header) pemBlock() pem.Block {
	var blck pem.Block
	blck.Type = pemType
	blck.Headers = make(map[string]string)
	blck.Headers["ApiLevel"] = strconv.Itoa(h.apiLevel)
	blck.Headers["Counter"] = strconv.FormatUint(h.index, 10)
	if len(h.fileName) > 0 {
		blck.Headers["FileName"] = h.fileName
	}
	blck.Headers["Compression"] = fmt.Sprintf("%v", h.compression)
	blck.Headers["FileSize"] = strconv.FormatInt(h.size, 10)
	return blck
}

func headerFromPem(blck pem.Block) (header, error) {
	var h header
	var err error
	fal, exists := blck.Headers["ApiLevel"]
	if !exists {
		fal = "-1"
	}
	if h.apiLevel, err = strconv.Atoi(fal); err != nil {
		return h, fmt.Errorf("%w: api level: %v", errBadHeader, err)
	}
	if h.index, err = strconv.ParseUint(blck.Headers["Counter"], 10, 64); err != nil {
		return h, fmt.Errorf("%w: counter: %v", errBadHeader, err)
	}
	if h.size, err = strconv.ParseInt(blck.Headers["FileSize"], 10, 64); err != nil || h.size < 0 {
		return h, fmt.Errorf("%w: file size [%s]", errBadHeader, blck.Headers["FileSize"])
	}
	h.fileName = blck.Headers["FileName"]
	h.compression = blck.Headers["Compression"] == "true"
	return h, nil
}
