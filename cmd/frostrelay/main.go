// Command frostrelay runs an offline FROST threshold-signature workflow.
//
// Each invocation executes one protocol phase against a local state
// directory and prints a relay-ready JSON payload to stdout. The operator
// carries payloads between parties by hand; stderr carries the logs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/frostrelay/frostrelay/pkg/session"
)

const defaultStateDir = ".frost_state"

var usage = `Usage: frostrelay <command> [flags]

Key generation:
  keygen-round1    generate this party's commitment
  keygen-round2    verify all commitments, emit secret shares
  keygen-finalize  derive the final key share and group key

Signing:
  sign-nonce       generate a nonce for a signing session
  sign             create a signature share
  combine          combine signature shares into the final signature

Every command accepts --state-dir (default ` + defaultStateDir + `).
Set FROST_LOG=no to silence logging.
`

// env holds what every subcommand needs: the opened store and a logger.
type env struct {
	store *session.FileStore
	log   zerolog.Logger
}

// command is one subcommand: its flag set and its runner. Runners print
// their relay payload to stdout and return an error for any fatal
// condition.
type command struct {
	flags *flag.FlagSet
	run   func(e *env) error
}

func newLogger(cmd string) zerolog.Logger {
	if os.Getenv("FROST_LOG") == "no" {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("cmd", cmd).Logger()
}

// emit prints a relay message as indented JSON on stdout.
func emit(msg interface{}) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	commands := map[string]func(name string) *command{
		"keygen-round1":   keygenRound1Command,
		"keygen-round2":   keygenRound2Command,
		"keygen-finalize": keygenFinalizeCommand,
		"sign-nonce":      signNonceCommand,
		"sign":            signCommand,
		"combine":         combineCommand,
	}

	name := os.Args[1]
	build, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "frostrelay: unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}

	cmd := build(name)
	stateDir := cmd.flags.String("state-dir", defaultStateDir, "state directory")
	if err := cmd.flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	store, err := session.NewFileStore(*stateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frostrelay: %v\n", err)
		os.Exit(1)
	}

	e := &env{store: store, log: newLogger(name)}
	if err := cmd.run(e); err != nil {
		fmt.Fprintf(os.Stderr, "frostrelay: %v\n", err)
		os.Exit(1)
	}
}
