package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/google/uuid"

	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/protocols/sign"
)

func signNonceCommand(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	sessionID := flags.String("session", "", "signing session identifier (default: fresh UUID)")
	return &command{
		flags: flags,
		run: func(e *env) error {
			id := *sessionID
			if id == "" {
				id = uuid.NewString()
			}
			msg, err := sign.New(e.store, e.log).GenerateNonce(id)
			if err != nil {
				return err
			}
			return emit(msg)
		},
	}
}

func signCommand(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	sessionID := flags.String("session", "", "signing session identifier")
	message := flags.String("message", "", "message to sign")
	data := flags.String("data", "", "concatenated signing_nonce messages from all signers")
	return &command{
		flags: flags,
		run: func(e *env) error {
			if *sessionID == "" {
				return errors.New("sign: --session is required")
			}
			if *message == "" {
				return errors.New("sign: --message is required")
			}
			if *data == "" {
				return errors.New("sign: --data is required")
			}
			msg, err := sign.New(e.store, e.log).CreateShare(*sessionID, *message, *data)
			if err != nil {
				return err
			}
			return emit(msg)
		},
	}
}

func combineCommand(name string) *command {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	data := flags.String("data", "", "concatenated signing_share messages from all signers")
	return &command{
		flags: flags,
		run: func(e *env) error {
			if *data == "" {
				return errors.New("combine: --data is required")
			}
			sig, err := sign.New(e.store, e.log).Combine(*data)
			if err != nil {
				return err
			}
			fmt.Printf("signature: %s\n", relay.EncodeHex(sig))
			return nil
		},
	}
}
