package tui

import (
	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// Msg is the sealed interface for all TUI messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgStatusLoaded is sent when the status snapshot is loaded.
type MsgStatusLoaded struct {
	Status *usecase.ShowStatusOutput
}

func (MsgStatusLoaded) sealed() {}

// MsgHistoryLoaded is sent when recent iterations are loaded.
type MsgHistoryLoaded struct {
	Records []domain.IterationRecord
}

func (MsgHistoryLoaded) sealed() {}

// MsgLedgerLoaded is sent when the ledger text is read for the preview.
type MsgLedgerLoaded struct {
	Content string
}

func (MsgLedgerLoaded) sealed() {}

// MsgIterationDone is sent when an iteration started from the TUI finishes.
type MsgIterationDone struct {
	Outcome domain.IterationOutcome
}

func (MsgIterationDone) sealed() {}

// MsgError is sent when an operation fails.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}

// MsgTick is sent periodically for auto-refresh.
type MsgTick struct{}

func (MsgTick) sealed() {}
