package trial

import (
	"errors"
	"testing"
)

func TestRegistry_SeatsAreDenseAndNeverReused(t *testing.T) {
	stubDraws(t)
	pool := NewPool([]RoleCount{{Role: "Juror", Count: 3}})
	r := NewRegistry(3)

	p1, err := r.Admit("c1", "ana", &pool)
	if err != nil {
		t.Fatalf("admit c1: %v", err)
	}
	p2, err := r.Admit("c2", "ben", &pool)
	if err != nil {
		t.Fatalf("admit c2: %v", err)
	}
	if p1.Seat != 1 || p2.Seat != 2 {
		t.Fatalf("want seats 1,2 got %d,%d", p1.Seat, p2.Seat)
	}

	// Seat 1 leaves; the next joiner gets seat 3, never a recycled 1.
	if r.Remove("c1", &pool) == nil {
		t.Fatalf("remove c1 should return the participant")
	}
	p3, err := r.Admit("c3", "cat", &pool)
	if err != nil {
		t.Fatalf("admit c3: %v", err)
	}
	if p3.Seat != 3 {
		t.Fatalf("want seat 3, got %d", p3.Seat)
	}
	if r.BySeat(1) != nil {
		t.Fatalf("seat 1 should be retired")
	}
}

func TestRegistry_RoleConservation(t *testing.T) {
	stubDraws(t)
	pool := NewPool([]RoleCount{{Role: "A", Count: 2}, {Role: "B", Count: 2}})
	r := NewRegistry(4)

	check := func(step string) {
		if pool.Size()+r.Count() != pool.Initial {
			t.Fatalf("%s: conservation broken, pool=%d seated=%d initial=%d",
				step, pool.Size(), r.Count(), pool.Initial)
		}
	}

	check("empty")
	for i, id := range []string{"c1", "c2", "c3"} {
		if _, err := r.Admit(id, "p", &pool); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		check("after admit " + id)
	}
	r.Remove("c2", &pool)
	check("after remove")
	if _, err := r.Admit("c4", "p", &pool); err != nil {
		t.Fatalf("admit c4: %v", err)
	}
	check("after readmit")
}

func TestRegistry_CapacityAndPoolLimits(t *testing.T) {
	stubDraws(t)
	pool := NewPool([]RoleCount{{Role: "A", Count: 2}})

	// Capacity smaller than the pool trips first.
	r := NewRegistry(1)
	if _, err := r.Admit("c1", "p", &pool); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := r.Admit("c2", "p", &pool); !errors.Is(err, ErrCapacityReached) {
		t.Fatalf("want ErrCapacityReached, got %v", err)
	}

	// A retired seat's role is drawable again.
	r.Remove("c1", &pool)
	if pool.Size() != 2 {
		t.Fatalf("role should return to pool, size=%d", pool.Size())
	}
}

func TestRegistry_RejectsSecondSeatForSameConn(t *testing.T) {
	stubDraws(t)
	pool := NewPool([]RoleCount{{Role: "A", Count: 4}})
	r := NewRegistry(4)

	if _, err := r.Admit("c1", "ana", &pool); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := r.Admit("c1", "ana again", &pool); !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("want ErrMalformedRequest for duplicate conn, got %v", err)
	}
	if r.Count() != 1 || pool.Size() != 3 {
		t.Fatalf("rejected admit must not draw: seats=%d pool=%d", r.Count(), pool.Size())
	}

	// The one seat tears down cleanly; nothing is stranded.
	r.Remove("c1", &pool)
	if r.Count() != 0 || pool.Size() != pool.Initial {
		t.Fatalf("after remove: seats=%d pool=%d initial=%d", r.Count(), pool.Size(), pool.Initial)
	}
}

func TestRegistry_LookupsStayConsistent(t *testing.T) {
	stubDraws(t)
	pool := NewPool([]RoleCount{{Role: "A", Count: 2}})
	r := NewRegistry(2)

	p, _ := r.Admit("c1", "ana", &pool)
	if r.ByConn("c1") != p || r.BySeat(p.Seat) != p {
		t.Fatalf("lookups disagree")
	}

	r.Remove("c1", &pool)
	if r.ByConn("c1") != nil || r.BySeat(p.Seat) != nil {
		t.Fatalf("lookups should both miss after remove")
	}
	if r.Remove("c1", &pool) != nil {
		t.Fatalf("double remove should be a no-op")
	}
	if pool.Size() != 2 {
		t.Fatalf("double remove must not double-return the role, size=%d", pool.Size())
	}
}
