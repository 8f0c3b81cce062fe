package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChanges(t *testing.T) {
	var c Changes
	assert.True(t, c.Empty())

	name := "old"
	assert.False(t, SetIfChanged(&c, "name", &name, "old"))
	assert.True(t, c.Empty())

	assert.True(t, SetIfChanged(&c, "name", &name, "new"))
	assert.Equal(t, "new", name)
	internal := false
	SetIfChanged(&c, "internal", &internal, true)
	c.Set("name", "newer")

	assert.Equal(t, []string{"name", "internal"}, c.Columns())
	assert.Equal(t, []any{"newer", true}, c.Values())
	assert.True(t, c.Has("internal"))
	assert.False(t, c.Has("version"))
}

func TestIdentityEquality(t *testing.T) {
	a := ComponentIdentity{Kind: IdentityPurl, Purl: "pkg:maven/acme/a@1"}
	b := ComponentIdentity{Kind: IdentityPurl, Purl: "pkg:maven/acme/a@1"}
	assert.Equal(t, a, b)
	assert.True(t, a == b)

	c := ComponentIdentity{Kind: IdentityCoordinates, Name: "pkg:maven/acme/a@1"}
	assert.NotEqual(t, a, c)

	m := map[ComponentIdentity]int{a: 1}
	_, ok := m[b]
	assert.True(t, ok)
}
