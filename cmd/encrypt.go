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
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/bgallie/filters/ascii85"
	"github.com/bgallie/filters/flate"
	"github.com/bgallie/filters/lines"
	"github.com/bgallie/filters/pem"
	"github.com/bgallie/spn/cryptors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	useASCII85   bool
	usePem       bool
	compression  bool
	cnt          string
	blocksUsed   uint64
	bytesWritten int64
)

// encryptCmd represents the encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt [secret]",
	Short: "Encrypt plaintext using SPN",
	Long:  `Encrypt plaintext using the ten round SPN block cipher.  Each 128 bit block is encrypted with its own block index.`,
	Run: func(cmd *cobra.Command, args []string) {
		encrypt(args)
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd)
	encryptCmd.Flags().BoolVarP(&useASCII85, "useASCII85", "a", false, "use ASCII85 encoding")
	encryptCmd.Flags().BoolVarP(&usePem, "usePem", "p", false, "use PEM encoding.")
	encryptCmd.Flags().BoolVarP(&compression, "compress", "c", false, "compress input file using flate")
	encryptCmd.Flags().StringVarP(&cnt, "index", "n", "", `initial block index
The inital block index can be given as a fraction (eg. 1/3 or 1/2) of the largest block index.
The inital block index is only effective on the first use of the secret key.`)
}

// parseIndex converts the initial block index argument into a block index.
// cnt can be a number or a fraction such as "1/2", "2/3", or "3/4".  If it is
// a fraction, the index is the largest block index multiplied by the
// fraction.
func parseIndex(cnt string) (uint64, error) {
	flds := strings.Split(cnt, "/")
	switch len(flds) {
	case 1:
		idx, err := strconv.ParseUint(cnt, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed converting the index to a uint64: [%s]: %w", cnt, err)
		}
		return idx, nil
	case 2:
		a, good := new(big.Int).SetString(flds[0], 10)
		if !good || a.Sign() < 0 {
			return 0, fmt.Errorf("failed converting the numerator to a big.Int: [%s]", flds[0])
		}
		b, good := new(big.Int).SetString(flds[1], 10)
		if !good || b.Sign() <= 0 {
			return 0, fmt.Errorf("failed converting the denominator to a big.Int: [%s]", flds[1])
		}
		if a.Cmp(b) > 0 {
			return 0, fmt.Errorf("the fraction must not be greater than one: [%s]", cnt)
		}
		m := new(big.Int).SetUint64(math.MaxUint64)
		return m.Div(m.Mul(m, a), b).Uint64(), nil
	default:
		return 0, fmt.Errorf("incorrect initial index: [%s]", cnt)
	}
}

// cipherHelper encrypts everything read from rdr, one block index per
// block starting at startIndex.  The data read from the returned reader is
// the number of plaintext bytes followed by a newline, then the ciphertext.
// The last block is zero filled, so the byte count is needed to recover the
// exact plaintext.  The ciphertext is staged in a temporary file because
// the byte count is only known at the end.
func cipherHelper(rdr io.Reader, startIndex uint64) *io.PipeReader {
	rRdr, rWrtr := io.Pipe()
	leftMost, rightMost := engine.EncryptMachine()
	tmpFile, err := os.CreateTemp("", "spn*")
	cobra.CheckErr(err)
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer os.Remove(tmpFile.Name())
		defer tmpFile.Close()
		defer rWrtr.Close()
		index := startIndex
		plainText := make([]byte, 0)

		encryptBlock := func(data []byte) {
			var b [cryptors.CypherBlockBytes]byte
			copy(b[:], data)
			blk := cryptors.CypherBlock{
				Length:      int8(len(data)),
				Index:       index,
				CypherBlock: cryptors.BlockFromBytes(&b),
			}
			leftMost <- blk
			blk = <-rightMost
			b = blk.CypherBlock.Bytes()
			_, err := tmpFile.Write(b[:])
			checkError(err)
			bytesWritten += int64(len(data))
			blocksUsed++
			index++
		}

		var err error
		for err != io.EOF {
			b := make([]byte, 2048)
			var n int
			n, err = rdr.Read(b)
			checkError(err)
			plainText = append(plainText, b[:n]...)
			for len(plainText) >= cryptors.CypherBlockBytes {
				encryptBlock(plainText[:cryptors.CypherBlockBytes])
				plainText = plainText[cryptors.CypherBlockBytes:]
			}
		}

		if len(plainText) > 0 {
			encryptBlock(plainText)
		}

		// shutdown the encryption machine by processing a CypherBlock with zero
		// value length field.
		var blk cryptors.CypherBlock
		leftMost <- blk
		<-rightMost

		_, err = tmpFile.Seek(0, io.SeekStart)
		checkError(err)
		_, err = fmt.Fprintf(rWrtr, "%d\n", bytesWritten)
		checkError(err)
		_, err = io.Copy(rWrtr, tmpFile)
		checkError(err)
		log.Debug().Uint64("blocks", blocksUsed).Int64("bytes", bytesWritten).Msg("encryption complete")
	}()

	return rRdr
}

func encrypt(args []string) {
	initEngine(args)
	var startIndex uint64
	if len(cnt) != 0 {
		var err error
		startIndex, err = parseIndex(cnt)
		cobra.CheckErr(err)
	}
	// Read in the saved index for this key, if there is one, so that a block
	// index is never used twice with the same key.
	mKey := fmt.Sprintf("counters.%s", engine.CounterKey())
	if viper.IsSet(mKey) {
		savedCnt := viper.GetString(mKey)
		var err error
		startIndex, err = strconv.ParseUint(savedCnt, 10, 64)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("Failed to convert the saved index to a uint64:\n\t[%s]\n", savedCnt))
		}
		if cnt != "" {
			log.Warn().Msg("Ignoring the block index argument - using the value from the saved index.")
		}
	}
	log.Debug().Uint64("index", startIndex).Msg("starting block index")

	fin, fout := getInputAndOutputFiles(true)
	defer fout.Close()
	var src io.Reader = fin
	if compression {
		src = flate.ToFlate(fin)
	}

	bRdr := bufio.NewReader(cipherHelper(src, startIndex))
	line, err := bRdr.ReadString('\n')
	checkError(err)
	size, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	cobra.CheckErr(err)

	hdr := header{
		apiLevel:    spnApiLevel,
		ascii85:     useASCII85,
		compression: compression,
		index:       startIndex,
		size:        size,
	}
	if len(inputFileName) > 0 && inputFileName != "-" {
		hdr.fileName = inputFileName
	}

	if usePem {
		_, err = io.Copy(fout, pem.ToPem(bRdr, hdr.pemBlock()))
	} else {
		_, err = fout.WriteString(hdr.String())
		cobra.CheckErr(err)
		if useASCII85 {
			_, err = io.Copy(fout, lines.SplitToLines(ascii85.ToASCII85(bRdr)))
		} else {
			_, err = io.Copy(fout, bRdr)
		}
	}
	checkError(err)
	wg.Wait()

	if blocksUsed > math.MaxUint64-startIndex {
		cobra.CheckErr("the block index for this key is exhausted.")
	}
	viper.Set(mKey, strconv.FormatUint(startIndex+blocksUsed, 10))
	cobra.CheckErr(writeConfig())
}
