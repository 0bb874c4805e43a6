package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/protocols/keygen"
)

func keygenRound1Command(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	threshold := flags.Uint("threshold", 0, "number of parties required to sign")
	nParties := flags.Uint("n-parties", 0, "total number of parties")
	myIndex := flags.Uint("my-index", 0, "this party's 1-based index")
	return &command{
		flags: flags,
		run: func(e *env) error {
			msg, err := keygen.New(e.store, e.log).
				Round1(party.Size(*threshold), int(*nParties), party.ID(*myIndex))
			if err != nil {
				return err
			}
			return emit(msg)
		},
	}
}

func keygenRound2Command(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	data := flags.String("data", "", "concatenated keygen_round1 messages from all parties")
	return &command{
		flags: flags,
		run: func(e *env) error {
			if *data == "" {
				return errors.New("keygen-round2: --data is required")
			}
			msg, err := keygen.New(e.store, e.log).Round2(*data)
			if err != nil {
				return err
			}
			return emit(msg)
		},
	}
}

func keygenFinalizeCommand(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	data := flags.String("data", "", "concatenated keygen_round2 messages from all parties")
	return &command{
		flags: flags,
		run: func(e *env) error {
			if *data == "" {
				return errors.New("keygen-finalize: --data is required")
			}
			config, err := keygen.New(e.store, e.log).Finalize(*data)
			if err != nil {
				return err
			}
			fmt.Printf("group key: %s\n", relay.EncodeHex(config.PublicKey()))
			return nil
		},
	}
}
