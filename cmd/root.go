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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bgallie/spn/cryptors"
	"github.com/bgallie/spn/spn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	cfgFile           string
	defaultConfigFile string
	inputFileName     string
	outputFileName    string
	useHexKey         bool
	verbose           bool
	engine            *spn.Engine
	wg                sync.WaitGroup
	Version           string = "dev"
)

const (
	spnApiLevel   = 1
	spnConfigName = ".spn"
	spnFileSuffix = ".spn"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "spn",
	Short:   "A 128 bit substitution-permutation network cipher",
	Long:    `spn encrypts/decrypts files using a ten round, 128 bit substitution-permutation network block cipher.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spn.yaml)")
	rootCmd.PersistentFlags().StringVarP(&inputFileName, "inputFile", "i", "-", "Name of the plaintext file to encrypt/decrypt.")
	rootCmd.PersistentFlags().StringVarP(&outputFileName, "outputFile", "o", "", "Name of the file containing the encrypted/decrypted plaintext.")
	rootCmd.PersistentFlags().BoolVarP(&useHexKey, "hexKey", "x", false, "the secret is a 128 bit key given as 32 hexadecimal digits.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debugging information to stderr.")
}

// initLogging sends human readable logs to stderr.
func initLogging() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	initLogging()

	// Find home directory.
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	defaultConfigFile = filepath.Join(home, spnConfigName+".yaml")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".spn" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(spnConfigName)
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

// writeConfig saves the configuration (and with it the block counters),
// creating the default config file if none was read.
func writeConfig() error {
	if viper.ConfigFileUsed() != "" {
		return viper.WriteConfig()
	}
	return viper.WriteConfigAs(defaultConfigFile)
}

func initEngine(args []string) {
	// Obtain the secret used to encrypt the file from either:
	// 1. User input from the terminal (most secure)
	// 2. The 'SPN_SECRET' environment variable (less secure)
	// 3. Arguments from the entered command line (least secure - not recommended)
	var secret string
	if len(args) == 0 {
		if viper.IsSet("SPN_SECRET") {
			secret = viper.GetString("SPN_SECRET")
		} else {
			if term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprintf(os.Stderr, "Enter the passphrase: ")
				byteSecret, err := term.ReadPassword(int(os.Stdin.Fd()))
				cobra.CheckErr(err)
				fmt.Fprintln(os.Stderr, "")
				secret = string(byteSecret)
			}
		}
	} else {
		secret = strings.Join(args, " ")
	}

	if len(secret) == 0 {
		cobra.CheckErr("You must supply a password.")
	}

	var masterKey cryptors.Block
	var err error
	if useHexKey {
		masterKey, err = spn.ParseKey(secret)
	} else {
		masterKey, err = spn.KeyFromSecret([]byte(secret))
	}
	cobra.CheckErr(err)

	engine = spn.New(masterKey)
	log.Debug().Str("counterKey", engine.CounterKey()).Msg("engine ready")
}

/*
getInputAndOutputFiles will return the input and output files to use while
encrypting/decrypting data.  If input and/or output files names were given,
then those files will be opened.  Otherwise stdin and stdout are used.
*/
func getInputAndOutputFiles(encode bool) (*os.File, *os.File) {
	var fin *os.File
	var err error

	if len(inputFileName) > 0 && inputFileName != "-" {
		fin, err = os.Open(inputFileName)
		cobra.CheckErr(err)
	} else {
		fin = os.Stdin
	}

	var fout *os.File

	if len(outputFileName) > 0 {
		if outputFileName == "-" {
			fout = os.Stdout
		} else {
			fout, err = os.Create(outputFileName)
			cobra.CheckErr(err)
		}
	} else if inputFileName == "-" || inputFileName == "" {
		fout = os.Stdout
	} else if encode {
		outputFileName = inputFileName + spnFileSuffix
		fout, err = os.Create(outputFileName)
		cobra.CheckErr(err)
	} else if strings.HasSuffix(inputFileName, spnFileSuffix) {
		outputFileName = strings.TrimSuffix(inputFileName, spnFileSuffix)
		fout, err = os.Create(outputFileName)
		cobra.CheckErr(err)
	} else {
		fout = os.Stdout
	}

	log.Debug().Str("input", inputFileName).Str("output", outputFileName).Msg("files selected")
	return fin, fout
}

// checkError checks for error that are not io.EOF and io.ErrUnexpectedEOF and reports them.
func checkError(e error) {
	if e != io.EOF && e != io.ErrUnexpectedEOF {
		cobra.CheckErr(e)
	}
}
