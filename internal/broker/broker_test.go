package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/logging"
)

// scriptedBroker answers every request with a fixed payload, delivered
// asynchronously like a real frontend would.
func scriptedBroker(response string) *Broker {
	var b *Broker
	b = New(TransportFunc(func(_ context.Context, endpoint string, env Envelope) error {
		go b.Deliver(endpoint, env.CorrelationID, []byte(response))
		return nil
	}), time.Second)
	return b
}

func candidates() []account.Masked {
	return []account.Masked{
		{ID: "11112222", Last4: "2222", Nickname: "Salary", Type: account.TypeSalary},
		{ID: "11113333", Last4: "3333", Nickname: "Rainy Day", Type: account.TypeSavings},
	}
}

func TestAskChooseAccount(t *testing.T) {
	b := scriptedBroker(`{"accountId":"11113333"}`)

	ans, err := b.Ask(context.Background(), "user-1", Request{Kind: KindChooseAccount, Accounts: candidates()})
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if ans.AccountID != "11113333" {
		t.Fatalf("wrong account id: %q", ans.AccountID)
	}
}

func TestAskChooseAccountRejectsUnknownCandidate(t *testing.T) {
	b := scriptedBroker(`{"accountId":"99999999"}`)

	_, err := b.Ask(context.Background(), "user-1", Request{Kind: KindChooseAccount, Accounts: candidates()})
	if !errors.Is(err, ErrBadAnswer) {
		t.Fatalf("expected bad answer, got %v", err)
	}
}

func TestAskCancellationSentinel(t *testing.T) {
	cases := map[string]struct {
		kind     Kind
		response string
	}{
		"choose account numeric": {KindChooseAccount, `{"accountId":-1}`},
		"choose account string":  {KindChooseAccount, `{"accountId":"-1"}`},
		"payee number":           {KindRequestPayeeAccNo, `{"accountNumber":-1}`},
		"tpin":                   {KindRequestTPIN, `{"tpin":-1}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := scriptedBroker(tc.response)
			_, err := b.Ask(context.Background(), "user-1", Request{Kind: tc.kind, Accounts: candidates()})
			if !errors.Is(err, ErrCancelled) {
				t.Fatalf("expected cancellation, got %v", err)
			}
		})
	}
}

func TestAskTPINValidation(t *testing.T) {
	cases := map[string]string{
		"too short":  `{"tpin":"123"}`,
		"too long":   `{"tpin":"12345"}`,
		"non digits": `{"tpin":"12a4"}`,
		"missing":    `{}`,
		"not json":   `garbage`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			b := scriptedBroker(response)
			_, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN, Prompt: "Enter your 4-digit transaction PIN"})
			if !errors.Is(err, ErrBadAnswer) {
				t.Fatalf("expected bad answer, got %v", err)
			}
		})
	}

	b := scriptedBroker(`{"tpin":"0042"}`)
	ans, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN})
	if err != nil {
		t.Fatalf("valid tpin rejected: %v", err)
	}
	if ans.TPIN != "0042" {
		t.Fatalf("wrong tpin: %q", ans.TPIN)
	}
}

func TestAskPayeeAccountNumber(t *testing.T) {
	b := scriptedBroker(`{"accountNumber":"33334444"}`)
	ans, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestPayeeAccNo, Prompt: "Please enter the payee's account number"})
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if ans.AccountNumber != "33334444" {
		t.Fatalf("wrong account number: %q", ans.AccountNumber)
	}

	b = scriptedBroker(`{"accountNumber":""}`)
	if _, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestPayeeAccNo}); !errors.Is(err, ErrBadAnswer) {
		t.Fatalf("expected bad answer for empty number, got %v", err)
	}
}

func TestAskTimeout(t *testing.T) {
	silent := TransportFunc(func(context.Context, string, Envelope) error { return nil })
	b := New(silent, 30*time.Millisecond)

	start := time.Now()
	_, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("returned before the deadline")
	}
}

func TestAskSecondPendingRejected(t *testing.T) {
	release := make(chan struct{})
	var b *Broker
	b = New(TransportFunc(func(_ context.Context, endpoint string, env Envelope) error {
		go func() {
			<-release
			b.Deliver(endpoint, env.CorrelationID, []byte(`{"tpin":"1234"}`))
		}()
		return nil
	}), time.Second)

	first := make(chan error, 1)
	go func() {
		_, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN})
		first <- err
	}()

	// Wait for the first ask to register as pending.
	deadline := time.After(time.Second)
	for {
		b.mu.Lock()
		pending := len(b.pending) == 1
		b.mu.Unlock()
		if pending {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first ask never became pending")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN}); !errors.Is(err, ErrAskPending) {
		t.Fatalf("expected pending rejection, got %v", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first ask failed: %v", err)
	}
}

func TestLateDeliveryDropped(t *testing.T) {
	b := New(TransportFunc(func(context.Context, string, Envelope) error { return nil }), 10*time.Millisecond)
	if _, err := b.Ask(context.Background(), "user-1", Request{Kind: KindRequestTPIN}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if b.Deliver("user-1", "stale", []byte(`{"tpin":"1234"}`)) {
		t.Fatal("late delivery must be dropped")
	}
}

func TestRedisTransportRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	transport := NewRedisTransport(cache, logging.Discard())
	b := New(transport, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go transport.Run(ctx, b) // nolint:errcheck

	// Fake frontend: echo a selection back on the response channel.
	frontend := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer frontend.Close()
	sub := frontend.Subscribe(ctx, RequestChannel("user-7"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	go func() {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			return
		}
		reply, _ := json.Marshal(Envelope{
			CorrelationID: env.CorrelationID,
			Method:        env.Method,
			Payload:       json.RawMessage(`{"accountId":"11112222"}`),
		})
		frontend.Publish(ctx, ResponseChannel("user-7"), reply)
	}()

	ans, err := b.Ask(ctx, "user-7", Request{Kind: KindChooseAccount, Accounts: candidates()})
	if err != nil {
		t.Fatalf("ask over redis failed: %v", err)
	}
	if ans.AccountID != "11112222" {
		t.Fatalf("wrong account id: %q", ans.AccountID)
	}
}
