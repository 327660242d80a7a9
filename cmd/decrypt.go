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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bgallie/filters/ascii85"
	"github.com/bgallie/filters/flate"
	"github.com/bgallie/filters/lines"
	"github.com/bgallie/filters/pem"
	"github.com/bgallie/spn/cryptors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// blocksPerRead is the number of cipher blocks read and decrypted together.
const blocksPerRead = 4096

var errTruncated = errors.New("the encrypted data is shorter than the recorded file size")

// decryptCmd represents the decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt [secret]",
	Short: "Decrypt a SPN encrypted file.",
	Long:  `Decrypt a file encrypted by the ten round SPN block cipher.`,
	Run: func(cmd *cobra.Command, args []string) {
		decrypt(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)
}

// decryptHelper decrypts the ciphertext read from rdr, whose first block has
// block index startIndex, and returns a reader for the first size bytes of
// plaintext.  Ciphertext is decrypted blocksPerRead blocks at a time, spread
// over all CPUs.
func decryptHelper(ctx context.Context, rdr io.Reader, startIndex uint64, size int64) *io.PipeReader {
	rRdr, rWrtr := io.Pipe()
	wg.Add(1)

	go func() {
		defer wg.Done()
		buf := make([]byte, blocksPerRead*cryptors.CypherBlockBytes)
		blocks := make([]cryptors.Block, blocksPerRead)
		index := startIndex
		remaining := size

		for remaining > 0 {
			n, err := io.ReadFull(rdr, buf)
			if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				rWrtr.CloseWithError(err)
				return
			}
			nBlocks := n / cryptors.CypherBlockBytes
			if nBlocks == 0 {
				break
			}

			for i := range blocks[:nBlocks] {
				blocks[i] = cryptors.BlockFromBytes((*[cryptors.CypherBlockBytes]byte)(buf[i*cryptors.CypherBlockBytes:]))
			}
			if err := engine.DecryptBlocks(ctx, blocks[:nBlocks], index); err != nil {
				rWrtr.CloseWithError(err)
				return
			}
			index += uint64(nBlocks)

			for i := 0; i < nBlocks && remaining > 0; i++ {
				pt := blocks[i].Bytes()
				w := min(remaining, int64(cryptors.CypherBlockBytes))
				if _, err := rWrtr.Write(pt[:w]); err != nil {
					rWrtr.CloseWithError(err)
					return
				}
				remaining -= w
			}

			if err != nil {
				break
			}
		}

		if remaining > 0 {
			rWrtr.CloseWithError(errTruncated)
			return
		}
		log.Debug().Uint64("blocks", index-startIndex).Int64("bytes", size).Msg("decryption complete")
		rWrtr.Close()
	}()

	return rRdr
}

func decrypt(ctx context.Context, args []string) {
	initEngine(args)
	fin, fout := getInputAndOutputFiles(false)
	defer fout.Close()
	var hdr header
	var aRdr io.Reader
	bRdr := bufio.NewReader(fin)
	b, err := bRdr.Peek(5)
	checkError(err)
	if string(b) == "-----" {
		var pRdr *io.PipeReader
		var blck pem.Block
		pRdr, blck = pem.FromPem(bRdr)
		hdr, err = headerFromPem(blck)
		cobra.CheckErr(err)
		aRdr = pRdr
	} else {
		line, err := bRdr.ReadString('\n')
		checkError(err)
		hdr, err = parseHeader(line)
		cobra.CheckErr(err)
		if hdr.ascii85 {
			aRdr = ascii85.FromASCII85(lines.CombineLines(bRdr))
		} else {
			aRdr = bRdr
		}
	}

	if hdr.apiLevel != spnApiLevel {
		fmt.Fprintf(os.Stderr, "Error: API Level mismatch. FileApiLevel: %d, SpnApiLevel: %d\n", hdr.apiLevel, spnApiLevel)
		os.Exit(100)
	}

	if len(outputFileName) == 0 && len(hdr.fileName) > 0 {
		fout, err = os.Create(filepath.Base(hdr.fileName))
		cobra.CheckErr(err)
		defer fout.Close()
	}
	log.Debug().Uint64("index", hdr.index).Int64("size", hdr.size).Bool("compression", hdr.compression).Msg("decrypting")

	var plainRdr io.Reader = decryptHelper(ctx, aRdr, hdr.index, hdr.size)
	if hdr.compression {
		plainRdr = flate.FromFlate(plainRdr)
	}
	_, err = io.Copy(fout, plainRdr)
	checkError(err)
	wg.Wait() // Wait for the decryption goroutine to finish it's clean up.
}
