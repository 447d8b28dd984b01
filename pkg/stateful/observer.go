package stateful

// Observer receives hooks for writes made through a Collection.
// Hooks run while the collection's write lock is held and must not call
// back into the collection.
type Observer interface {
	// OnCreate is called after a record was inserted.
	OnCreate(kind string, id int)

	// OnUpdate is called after a record was replaced.
	OnUpdate(kind string, id int)

	// OnDelete is called after every delete. found is false when the id was
	// not stored, which is not an error.
	OnDelete(kind string, id int, found bool)

	// OnReject is called when a write fails validation or id generation.
	OnReject(kind string, op string, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnCreate(string, int)           {}
func (NoopObserver) OnUpdate(string, int)           {}
func (NoopObserver) OnDelete(string, int, bool)     {}
func (NoopObserver) OnReject(string, string, error) {}

// Observers fans every hook out to obs in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) OnCreate(kind string, id int) {
	for _, o := range m {
		o.OnCreate(kind, id)
	}
}

func (m multiObserver) OnUpdate(kind string, id int) {
	for _, o := range m {
		o.OnUpdate(kind, id)
	}
}

func (m multiObserver) OnDelete(kind string, id int, found bool) {
	for _, o := range m {
		o.OnDelete(kind, id, found)
	}
}

func (m multiObserver) OnReject(kind, op string, err error) {
	for _, o := range m {
		o.OnReject(kind, op, err)
	}
}
