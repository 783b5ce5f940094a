package repository

import "testing"

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	exercisePurge(t, NewMemoryStore())
}
