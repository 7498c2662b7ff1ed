// Package access implements the owner-controlled gate in front of every
// mutating registry operation: the authorized origin set and the global
// operational flag.
package access

import (
	"bytes"
	"errors"
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/surety-network/surety/common"
)

// Sentinel errors returned by the gate.
var (
	ErrNotOperational = errors.New("access: registry is not operational")
	ErrUnauthorized   = errors.New("access: caller is not authorized")
)

// Controller holds the owner identity, the authorized origin set and the
// operational flag. It is not safe for concurrent use; the owning system
// serializes access.
type Controller struct {
	owner       common.Address
	origins     mapset.Set
	operational bool
}

// NewController returns an operational Controller owned by owner, with an
// empty origin set.
func NewController(owner common.Address) *Controller {
	return &Controller{
		owner:       owner,
		origins:     mapset.NewSet(),
		operational: true,
	}
}

// Owner returns the owner identity fixed at construction.
func (c *Controller) Owner() common.Address { return c.owner }

// IsOperational reports whether mutating operations are currently allowed.
func (c *Controller) IsOperational() bool { return c.operational }

// SetOperational flips the operational flag. Owner only. Re-enabling is
// permitted while the registry is paused.
func (c *Controller) SetOperational(caller common.Address, on bool) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	c.operational = on
	return nil
}

// Authorize adds id to the authorized origin set. Owner only.
func (c *Controller) Authorize(caller, id common.Address) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	c.origins.Add(id)
	return nil
}

// Revoke removes id from the authorized origin set. Owner only.
func (c *Controller) Revoke(caller, id common.Address) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	c.origins.Remove(id)
	return nil
}

// IsAuthorized reports whether id is in the authorized origin set.
func (c *Controller) IsAuthorized(id common.Address) bool {
	return c.origins.Contains(id)
}

// Gate validates a mutating call driven by origin: the registry must be
// operational and the origin authorized.
func (c *Controller) Gate(origin common.Address) error {
	if !c.operational {
		return ErrNotOperational
	}
	if !c.origins.Contains(origin) {
		return ErrUnauthorized
	}
	return nil
}

// Record is the persistable snapshot of the controller. Origins are sorted
// by address ascending.
type Record struct {
	Owner       common.Address
	Operational bool
	Origins     []common.Address
}

// Record returns the persistable snapshot of the controller.
func (c *Controller) Record() Record {
	origins := make([]common.Address, 0, c.origins.Cardinality())
	for _, v := range c.origins.ToSlice() {
		origins = append(origins, v.(common.Address))
	}
	sort.Slice(origins, func(i, j int) bool {
		return bytes.Compare(origins[i][:], origins[j][:]) < 0
	})
	return Record{
		Owner:       c.owner,
		Operational: c.operational,
		Origins:     origins,
	}
}

// Load replaces the controller state with the contents of rec.
func (c *Controller) Load(rec Record) {
	c.owner = rec.Owner
	c.operational = rec.Operational
	c.origins = mapset.NewSet()
	for _, id := range rec.Origins {
		c.origins.Add(id)
	}
}
