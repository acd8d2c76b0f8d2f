package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/voicebank/voicebank/internal/bankapi"
	"github.com/voicebank/voicebank/internal/broker"
	"github.com/voicebank/voicebank/internal/transfer"
)

// FlowState names a step of the transfer orchestration state machine.
type FlowState string

const (
	FlowIdle               FlowState = "Idle"
	FlowAwaitPayeeAccount  FlowState = "AwaitPayeeAccount"
	FlowAwaitSourceAccount FlowState = "AwaitSourceAccount"
	FlowAwaitPin           FlowState = "AwaitPin"
	FlowExecuting          FlowState = "Executing"
	FlowSucceeded          FlowState = "Succeeded"
	FlowFailed             FlowState = "Failed"
	FlowCancelled          FlowState = "Cancelled"
)

// TransferFlowResult reports where the flow ended. Cancellation is a normal
// terminal state, not an error: the user declined, nothing was debited.
type TransferFlowResult struct {
	State   FlowState
	Outcome transfer.Outcome
}

// transferFlow tracks progression through the orchestration steps. Every
// broker round trip may independently cancel or time out; the flow never
// retries, the conversation layer restarts the whole sequence instead.
type transferFlow struct {
	state FlowState
}

func (f *transferFlow) advance(next FlowState) {
	f.state = next
}

// InitiateTransfer runs the end-to-end transfer orchestration: payee account
// number, source account choice and PIN are each collected out of band, then
// the transfer executes through the banking API. The PIN travels only on the
// broker channel and is handed straight to the API, never logged or spoken.
func (t *Tools) InitiateTransfer(ctx context.Context, room RoomContext, amount decimal.Decimal, payeeNickname string) (TransferFlowResult, error) {
	f := &transferFlow{state: FlowIdle}

	sessionID, err := ResolveSessionID(room, t.fallbackSession)
	if err != nil {
		f.advance(FlowFailed)
		return TransferFlowResult{State: f.state}, err
	}
	user, err := room.UserParticipant()
	if err != nil {
		f.advance(FlowFailed)
		return TransferFlowResult{State: f.state}, err
	}

	// Round trip 1: payee account number.
	f.advance(FlowAwaitPayeeAccount)
	payeeName := payeeNickname
	if payeeName == "" {
		payeeName = "the payee"
	}
	payeeAns, err := t.asker.Ask(ctx, user.Identity, broker.Request{
		Kind:   broker.KindRequestPayeeAccNo,
		Prompt: fmt.Sprintf("Please enter %s's account number", payeeName),
	})
	if err != nil {
		return t.finishAsk(f, "payee account number", err)
	}

	// Round trip 2: source account choice from the caller's own accounts.
	f.advance(FlowAwaitSourceAccount)
	masked, err := t.maskedAccounts(ctx, sessionID)
	if err != nil {
		f.advance(FlowFailed)
		return TransferFlowResult{State: f.state}, err
	}
	sourceAns, err := t.asker.Ask(ctx, user.Identity, broker.Request{
		Kind:     broker.KindChooseAccount,
		Prompt:   "Choose the source account",
		Accounts: masked,
	})
	if err != nil {
		return t.finishAsk(f, "source account selection", err)
	}

	// Round trip 3: the transaction PIN, never over voice. A malformed PIN
	// fails the whole flow; the broker already rejected bad formats.
	f.advance(FlowAwaitPin)
	pinAns, err := t.asker.Ask(ctx, user.Identity, broker.Request{
		Kind:   broker.KindRequestTPIN,
		Prompt: "Enter your 4-digit transaction PIN",
	})
	if err != nil {
		return t.finishAsk(f, "transaction PIN", err)
	}

	f.advance(FlowExecuting)
	outcome, err := t.api.Transfer(ctx, sessionID, bankapi.TransferRequest{
		SourceAccountNumber: sourceAns.AccountID,
		PayeeAccountNumber:  payeeAns.AccountNumber,
		PayeeName:           payeeNickname,
		Amount:              amount,
		TPIN:                pinAns.TPIN,
	})
	if err != nil {
		f.advance(FlowFailed)
		t.logger.Error("transfer execution failed", "state", string(f.state), "error", err)
		return TransferFlowResult{State: f.state}, fmt.Errorf("transfer failed: %w", err)
	}

	f.advance(FlowSucceeded)
	return TransferFlowResult{State: f.state, Outcome: outcome}, nil
}

// finishAsk maps a broker failure to the flow's terminal state. Cancellation
// ends the flow cleanly before any money moves; everything else is a failure
// naming the step.
func (t *Tools) finishAsk(f *transferFlow, step string, err error) (TransferFlowResult, error) {
	if errors.Is(err, broker.ErrCancelled) {
		f.advance(FlowCancelled)
		return TransferFlowResult{State: f.state}, nil
	}
	f.advance(FlowFailed)
	if errors.Is(err, broker.ErrTimeout) {
		return TransferFlowResult{State: f.state}, fmt.Errorf("timed out waiting for the %s: %w", step, err)
	}
	return TransferFlowResult{State: f.state}, fmt.Errorf("could not get the %s: %w", step, err)
}
