package main

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	libtest "github.com/dmtlabs/probeseek/lib/test"
	"github.com/dmtlabs/probeseek/pkg/chainrpc"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
	"github.com/dmtlabs/probeseek/pkg/game"
)

const demoContract = chain.Address("0x000000000000000000000000000000000000C0DE")

func runPlay(ctx context.Context, cfg *Config) error {
	if cfg.verbose {
		pterm.EnableDebugMessages()
	}
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Probe", pterm.FgCyan.ToStyle()),
		putils.LettersFromStringWithStyle("Seek", pterm.FgDarkGray.ToStyle()),
	).Render()

	client, err := buildClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client.OnResult(func(h chain.Handle) {
		pterm.Info.Printfln("A sealed result is ready: %s", shortHandle(h))
	})

	if cfg.wsURL != "" {
		watcher := chainrpc.NewHeadWatcher(cfg.wsURL, logger)
		go func() {
			if err := watcher.Run(ctx, func() {
				if err := client.Refresh(ctx); err != nil {
					logger.Warn("head-triggered refresh failed", "err", err)
				}
			}); err != nil && ctx.Err() == nil {
				logger.Warn("head watcher stopped", "err", err)
			}
		}()
	}

	return loop(ctx, client)
}

func buildClient(ctx context.Context, cfg *Config, logger *slog.Logger) (*game.Client, error) {
	if cfg.demo {
		eng := libtest.NewFakeEngine()
		gc := libtest.NewGameChain(eng, demoContract)
		s, err := libtest.NewDevSigner()
		if err != nil {
			return nil, err
		}
		gc.SetTarget(s.Address(), uint64(1+rand.Intn(10)))

		client := game.NewClient(game.Config{
			Contract: demoContract,
			Backend:  gc,
			Engine:   eng,
			Logger:   logger,
		})
		if err := client.Connect(ctx, s); err != nil {
			return nil, err
		}
		pterm.Success.Printfln("Demo session for %s", s.Address())
		return client, nil
	}

	var backend game.Backend
	contract := chain.Address(cfg.contract)
	if !contract.IsZero() {
		backend = chainrpc.New(cfg.rpcURL, contract, logger)
	}

	// Without a wired relayer SDK the engine reports not-ready, which keeps
	// probe submission cleanly disabled while reads still work.
	eng := libtest.NewFakeEngine()
	eng.SetReady(false)

	client := game.NewClient(game.Config{
		Contract: contract,
		Backend:  backend,
		Engine:   eng,
		Logger:   logger,
	})

	var s com_signer.Signer
	if cfg.account != "" {
		s = watchOnlySigner{account: chain.Address(cfg.account)}
	} else {
		dev, err := libtest.NewDevSigner()
		if err != nil {
			return nil, err
		}
		s = dev
	}
	if err := client.Connect(ctx, s); err != nil {
		return nil, err
	}
	pterm.Success.Printfln("Session for %s", s.Address())
	return client, nil
}

func loop(ctx context.Context, client *game.Client) error {
	pterm.Println()
	pterm.Info.Println("Commands: status, join, probe <1-10>, reveal, refresh, quit")

	input := pterm.DefaultInteractiveTextInput.WithDefaultText(">")
	for ctx.Err() == nil {
		line, _ := input.Show()
		fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit", "q":
			return nil

		case "status":
			renderSession(client)

		case "refresh":
			if err := client.Refresh(ctx); err != nil {
				pterm.Warning.Println(game.StatusMessage(err))
				continue
			}
			renderSession(client)

		case "join":
			spinner, _ := pterm.DefaultSpinner.Start("Initializing session on-chain...")
			if err := client.Join(ctx); err != nil {
				spinner.Fail(game.StatusMessage(err))
				continue
			}
			spinner.Success("Session initialized. Deploy a probe.")
			renderSession(client)

		case "probe":
			if len(fields) != 2 {
				pterm.Warning.Println("Usage: probe <1-10>")
				continue
			}
			value, err := game.ParseGuess(fields[1])
			if err != nil {
				pterm.Warning.Println(game.StatusMessage(err))
				continue
			}
			spinner, _ := pterm.DefaultSpinner.Start("Encrypting and deploying probe...")
			if err := client.Guess(ctx, value); err != nil {
				spinner.Fail(game.StatusMessage(err))
				continue
			}
			spinner.Success("Probe deployed. The result is sealed on-chain.")

		case "reveal":
			spinner, _ := pterm.DefaultSpinner.Start("Requesting authenticated decryption...")
			code, err := client.Reveal(ctx)
			if err != nil {
				spinner.Fail(game.StatusMessage(err))
				continue
			}
			spinner.Success(game.FeedbackMessage(code))
			renderSession(client)

		default:
			pterm.Warning.Printfln("Unknown command %q", fields[0])
		}
	}
	return ctx.Err()
}

type watchOnlySigner struct {
	account chain.Address
}

func (s watchOnlySigner) Address() chain.Address {
	return s.account
}

func (s watchOnlySigner) SignTypedData(ctx context.Context, data com_engine.TypedData) (string, error) {
	return "", com_signer.ErrUnavailable
}
