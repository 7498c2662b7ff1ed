package access

import (
	"testing"

	"github.com/surety-network/surety/common"
)

var (
	owner    = common.Address{0xaa}
	stranger = common.Address{0xbb}
	origin   = common.Address{0xcc}
)

func TestOwnerOnlyMutation(t *testing.T) {
	c := NewController(owner)

	if err := c.Authorize(stranger, origin); err != ErrUnauthorized {
		t.Errorf("authorize by stranger: want ErrUnauthorized, got %v", err)
	}
	if err := c.SetOperational(stranger, false); err != ErrUnauthorized {
		t.Errorf("pause by stranger: want ErrUnauthorized, got %v", err)
	}
	if !c.IsOperational() {
		t.Errorf("failed pause mutated flag")
	}
	if err := c.Revoke(stranger, origin); err != ErrUnauthorized {
		t.Errorf("revoke by stranger: want ErrUnauthorized, got %v", err)
	}
}

func TestGate(t *testing.T) {
	c := NewController(owner)
	if err := c.Gate(origin); err != ErrUnauthorized {
		t.Errorf("unauthorized origin: want ErrUnauthorized, got %v", err)
	}

	if err := c.Authorize(owner, origin); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := c.Gate(origin); err != nil {
		t.Errorf("authorized origin: %v", err)
	}

	if err := c.SetOperational(owner, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := c.Gate(origin); err != ErrNotOperational {
		t.Errorf("paused gate: want ErrNotOperational, got %v", err)
	}

	// The circuit breaker can re-enable itself while paused.
	if err := c.SetOperational(owner, true); err != nil {
		t.Errorf("unpause while paused: %v", err)
	}
	if err := c.Gate(origin); err != nil {
		t.Errorf("gate after unpause: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	c := NewController(owner)
	if err := c.Authorize(owner, origin); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := c.Revoke(owner, origin); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if c.IsAuthorized(origin) {
		t.Errorf("origin still authorized after revoke")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	c := NewController(owner)
	for _, id := range []common.Address{{0x03}, {0x01}, {0x02}} {
		if err := c.Authorize(owner, id); err != nil {
			t.Fatalf("authorize: %v", err)
		}
	}
	if err := c.SetOperational(owner, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	rec := c.Record()
	if len(rec.Origins) != 3 {
		t.Fatalf("origins: want 3, got %d", len(rec.Origins))
	}
	for i := 1; i < len(rec.Origins); i++ {
		if rec.Origins[i-1].Hex() >= rec.Origins[i].Hex() {
			t.Errorf("origins not sorted at %d", i)
		}
	}

	restored := NewController(common.Address{})
	restored.Load(rec)
	if restored.Owner() != owner || restored.IsOperational() {
		t.Errorf("restored controller diverges: owner=%v operational=%t", restored.Owner(), restored.IsOperational())
	}
	for _, id := range rec.Origins {
		if !restored.IsAuthorized(id) {
			t.Errorf("origin %v lost in round trip", id)
		}
	}
}
