package main

import (
	"github.com/pterm/pterm"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
	"github.com/dmtlabs/probeseek/pkg/game"
)

func renderSession(client *game.Client) {
	sess, err := client.Session()
	if err != nil {
		pterm.Warning.Println(game.StatusMessage(err))
		return
	}

	rows := pterm.TableData{
		{"Account", sess.Account().String()},
		{"Phase", sess.Phase().String()},
		{"Round", pterm.Sprintf("%d", sess.Round())},
		{"Result cipher", cipherCell(sess.Cipher())},
		{"Feedback", feedbackCell(sess.Feedback())},
	}

	table := pterm.DefaultTable.WithData(rows)
	out, renderErr := table.Srender()
	if renderErr != nil {
		pterm.Warning.Println(renderErr)
		return
	}
	pterm.DefaultBox.
		WithTitle(pterm.LightCyan("|SESSION|")).
		WithTitleTopCenter().
		WithLeftPadding(2).
		WithRightPadding(2).
		Println(out)
}

func cipherCell(h chain.Handle) string {
	if h.IsSentinel() {
		return pterm.Gray("none")
	}
	return shortHandle(h)
}

func feedbackCell(fb *com_session.Feedback) string {
	if fb == nil {
		return pterm.Gray("not revealed")
	}
	return game.FeedbackMessage(fb.Code)
}

func shortHandle(h chain.Handle) string {
	hex := h.Hex()
	return hex[:10] + "..." + hex[len(hex)-6:]
}
