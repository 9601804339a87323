package trial

import "math/rand"

// Role is one assignable juror role label.
type Role string

// RoleCount describes one label and how many copies of it the pool starts with.
type RoleCount struct {
	Role  Role
	Count int
}

// Pool is the finite multiset of assignable roles. A label lives either in the
// pool or on exactly one participant, never both, so |pool| + assigned roles
// always equals the initial multiset.
type Pool struct {
	Remaining []Role
	Initial   int
}

// Stubbed in tests to make draws deterministic.
var drawIndex = func(n int) int { return rand.Intn(n) }

func NewPool(counts []RoleCount) Pool {
	var roles []Role
	for _, rc := range counts {
		for i := 0; i < rc.Count; i++ {
			roles = append(roles, rc.Role)
		}
	}
	return Pool{Remaining: roles, Initial: len(roles)}
}

// Draw removes and returns one uniformly-random label.
func (p *Pool) Draw() (Role, error) {
	if len(p.Remaining) == 0 {
		return "", ErrPoolExhausted
	}
	i := drawIndex(len(p.Remaining))
	role := p.Remaining[i]
	p.Remaining = append(p.Remaining[:i], p.Remaining[i+1:]...)
	return role, nil
}

// Return reinserts a label, making it drawable again. Used on disconnect.
func (p *Pool) Return(role Role) {
	p.Remaining = append(p.Remaining, role)
}

func (p *Pool) Size() int { return len(p.Remaining) }
