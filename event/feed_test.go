package event

import (
	"testing"
	"time"
)

func TestFeedDeliversToAllSubscribers(t *testing.T) {
	var feed Feed[int]
	ch1 := make(chan int, 1)
	ch2 := make(chan int, 1)
	sub1 := feed.Subscribe(ch1)
	sub2 := feed.Subscribe(ch2)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	if n := feed.Send(7); n != 2 {
		t.Fatalf("sent to %d subscribers, want 2", n)
	}
	if got := <-ch1; got != 7 {
		t.Errorf("ch1: got %d, want 7", got)
	}
	if got := <-ch2; got != 7 {
		t.Errorf("ch2: got %d, want 7", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	var feed Feed[string]
	ch := make(chan string, 1)
	sub := feed.Subscribe(ch)
	sub.Unsubscribe()
	sub.Unsubscribe() // second call is a no-op

	if n := feed.Send("x"); n != 0 {
		t.Errorf("sent to %d subscribers after unsubscribe, want 0", n)
	}
	select {
	case _, ok := <-sub.Err():
		if ok {
			t.Errorf("Err() yielded a value, want closed channel")
		}
	case <-time.After(time.Second):
		t.Errorf("Err() not closed after unsubscribe")
	}
}

func TestUnsubscribeUnblocksSend(t *testing.T) {
	var feed Feed[int]
	ch := make(chan int) // unbuffered, never drained
	sub := feed.Subscribe(ch)

	done := make(chan int, 1)
	go func() { done <- feed.Send(1) }()

	// The send is blocked on ch; cancelling the subscription must release it.
	time.Sleep(10 * time.Millisecond)
	sub.Unsubscribe()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("blocked send reported %d deliveries, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("Send still blocked after Unsubscribe")
	}
}
