package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicebank/voicebank/internal/account"
)

// Kind names one of the out-of-band questions the agent may put to the
// frontend.
type Kind string

const (
	// KindChooseAccount asks the user to pick one of their own accounts.
	KindChooseAccount Kind = "chooseAccount"
	// KindRequestPayeeAccNo asks the user to type a payee account number.
	KindRequestPayeeAccNo Kind = "requestPayeeAccNo"
	// KindRequestTPIN asks the user for the 4-digit transaction PIN. The PIN
	// travels only on this channel, never over voice.
	KindRequestTPIN Kind = "requestTpin"
)

var (
	// ErrCancelled means the user explicitly declined at the frontend.
	ErrCancelled = errors.New("user cancelled the request")
	// ErrTimeout means the response deadline elapsed with no answer.
	ErrTimeout = errors.New("timed out waiting for frontend response")
	// ErrBadAnswer means the frontend answered with a malformed or
	// out-of-candidate payload.
	ErrBadAnswer = errors.New("invalid frontend response")
	// ErrAskPending means a request is already outstanding for the endpoint.
	// Two concurrent asks to one counterparty is a caller-ordering bug.
	ErrAskPending = errors.New("a request is already pending for this endpoint")
)

// DefaultTimeout bounds one round trip to the frontend.
const DefaultTimeout = 60 * time.Second

// Request describes one question for the frontend. Accounts carries the
// candidate set for chooseAccount and is empty for the other kinds.
type Request struct {
	Kind     Kind
	Prompt   string
	Accounts []account.Masked
}

// Answer is the validated result of a round trip. Exactly one field is set,
// matching the request kind.
type Answer struct {
	AccountID     string
	AccountNumber string
	TPIN          string
}

// Envelope frames a request or response on the wire, correlating the two by
// id.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Method        string          `json:"method"`
	Payload       json.RawMessage `json:"payload"`
}

// Transport delivers an envelope to a counterparty endpoint. Responses come
// back through Broker.Deliver, not through the transport's return value.
type Transport interface {
	Send(ctx context.Context, endpoint string, env Envelope) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint string, env Envelope) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, endpoint string, env Envelope) error {
	return f(ctx, endpoint, env)
}

type pendingAsk struct {
	correlationID string
	answer        chan json.RawMessage
}

// Broker runs the correlated request/response exchange with the frontend. It
// owns each outstanding request for its lifetime and discards it on answer,
// timeout or cancellation; requests are never reused.
type Broker struct {
	transport Transport
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingAsk
}

// New builds a broker over the given transport. A non-positive timeout falls
// back to DefaultTimeout.
func New(transport Transport, timeout time.Duration) *Broker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Broker{
		transport: transport,
		timeout:   timeout,
		pending:   make(map[string]*pendingAsk),
	}
}

// Ask sends one question to the endpoint and blocks until an answer arrives,
// the user cancels, or the deadline elapses. Validation happens here, at the
// protocol boundary: nothing malformed reaches the caller.
func (b *Broker) Ask(ctx context.Context, endpoint string, req Request) (Answer, error) {
	payload, err := encodePayload(req)
	if err != nil {
		return Answer{}, err
	}

	ask := &pendingAsk{
		correlationID: uuid.NewString(),
		answer:        make(chan json.RawMessage, 1),
	}

	b.mu.Lock()
	if _, exists := b.pending[endpoint]; exists {
		b.mu.Unlock()
		return Answer{}, ErrAskPending
	}
	b.pending[endpoint] = ask
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.pending[endpoint] == ask {
			delete(b.pending, endpoint)
		}
		b.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	env := Envelope{CorrelationID: ask.correlationID, Method: string(req.Kind), Payload: payload}
	if err := b.transport.Send(ctx, endpoint, env); err != nil {
		return Answer{}, fmt.Errorf("send %s request: %w", req.Kind, err)
	}

	select {
	case raw := <-ask.answer:
		return decodeAnswer(req, raw)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Answer{}, ErrTimeout
		}
		return Answer{}, ctx.Err()
	}
}

// Deliver hands an inbound response payload to the ask waiting on the
// endpoint. It reports false when no ask matches, which happens routinely
// after timeouts; late answers are dropped.
func (b *Broker) Deliver(endpoint, correlationID string, payload []byte) bool {
	b.mu.Lock()
	ask, ok := b.pending[endpoint]
	if !ok || ask.correlationID != correlationID {
		b.mu.Unlock()
		return false
	}
	delete(b.pending, endpoint)
	b.mu.Unlock()

	ask.answer <- append([]byte(nil), payload...)
	return true
}

// encodePayload shapes the outbound payload per kind: chooseAccount sends the
// candidate set, the other kinds send a bare prompt string.
func encodePayload(req Request) (json.RawMessage, error) {
	switch req.Kind {
	case KindChooseAccount:
		return json.Marshal(struct {
			Accounts []account.Masked `json:"accounts"`
			Prompt   string           `json:"prompt,omitempty"`
		}{Accounts: req.Accounts, Prompt: req.Prompt})
	case KindRequestPayeeAccNo, KindRequestTPIN:
		return json.Marshal(req.Prompt)
	default:
		return nil, fmt.Errorf("unknown ask kind %q", req.Kind)
	}
}
