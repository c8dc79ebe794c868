package draft

// NoopStore never persists anything. It stands in for an unavailable or
// disabled store; sessions using it behave as if no draft ever existed.
type NoopStore struct{}

func NewNoopStore() NoopStore { return NoopStore{} }

func (NoopStore) Get(key string) (string, error) { return "", ErrNoDraft }

func (NoopStore) Set(key, value string) error { return nil }

func (NoopStore) Remove(key string) error { return nil }
