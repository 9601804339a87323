package trial

// Participant is one admitted juror. Seat and Role are assigned once at join
// and never change for the participant's lifetime.
type Participant struct {
	ConnID      string
	Name        string
	Seat        int
	Role        Role
	VoteHistory []string
}

// Registry owns the live participants. Seat numbers are dense from 1 in join
// order and are never reused within a session, even after a disconnect; roles,
// by contrast, go back to the pool when their holder leaves.
type Registry struct {
	Ordered  []*Participant
	byConn   map[string]*Participant
	bySeat   map[int]*Participant
	NextSeat int
	Capacity int
}

func NewRegistry(capacity int) Registry {
	return Registry{
		byConn:   make(map[string]*Participant),
		bySeat:   make(map[int]*Participant),
		NextSeat: 1,
		Capacity: capacity,
	}
}

// Admit seats a new participant, drawing its role from pool. A connection
// holds at most one seat; admitting an already-seated connID would leave two
// live seats behind one identity and strand a role on disconnect.
func (r *Registry) Admit(connID, name string, pool *Pool) (*Participant, error) {
	if _, ok := r.byConn[connID]; ok {
		return nil, ErrMalformedRequest
	}
	if len(r.Ordered) >= r.Capacity {
		return nil, ErrCapacityReached
	}
	role, err := pool.Draw()
	if err != nil {
		return nil, err
	}
	p := &Participant{ConnID: connID, Name: name, Seat: r.NextSeat, Role: role}
	r.NextSeat++
	r.Ordered = append(r.Ordered, p)
	r.byConn[connID] = p
	r.bySeat[p.Seat] = p
	return p, nil
}

// Remove deletes the participant for connID and returns its role to pool.
// Unknown IDs are a no-op; the returned participant is nil in that case.
func (r *Registry) Remove(connID string, pool *Pool) *Participant {
	p, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	delete(r.byConn, connID)
	delete(r.bySeat, p.Seat)
	for i, q := range r.Ordered {
		if q == p {
			r.Ordered = append(r.Ordered[:i], r.Ordered[i+1:]...)
			break
		}
	}
	pool.Return(p.Role)
	return p
}

func (r *Registry) BySeat(seat int) *Participant { return r.bySeat[seat] }

func (r *Registry) ByConn(connID string) *Participant { return r.byConn[connID] }

func (r *Registry) Count() int { return len(r.Ordered) }

// ClearVotes wipes every seat's vote history. Votes are scoped to the phase
// they were cast in, so this runs on every phase change.
func (r *Registry) ClearVotes() {
	for _, p := range r.Ordered {
		p.VoteHistory = nil
	}
}
