package finders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/boorufind/internal/core/services"
)

type fakeStore struct {
	values map[string]string
}

func (s *fakeStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}
func (s *fakeStore) GetString(key string) string    { return s.values[key] }
func (s *fakeStore) Set(key string, value any) error { return nil }
func (s *fakeStore) Delete(key string) error         { return nil }
func (s *fakeStore) Keys() []string                  { return nil }
func (s *fakeStore) Watch(func()) (func(), error)    { return func() {}, nil }

func TestRegisterDefaults(t *testing.T) {
	agg := services.NewAggregator()
	RegisterDefaults(agg, nil)

	assert.Equal(t, Builtin(), agg.Names())
}

func TestCredential(t *testing.T) {
	store := &fakeStore{values: map[string]string{
		"finders.danbooru.api_key": "dkey",
		"finders.gelbooru.user_id": "99",
	}}

	assert.Equal(t, "dkey", credential(store, "danbooru", "api_key"))
	assert.Equal(t, "99", credential(store, "gelbooru", "user_id"))
	assert.Empty(t, credential(store, "gelbooru", "api_key"))
	assert.Empty(t, credential(nil, "danbooru", "api_key"))
}
