package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterLookup(t *testing.T) {
	c := New()
	c.Register("accounts", 3, Table)
	c.Register("accounts_by_email", 7, Index)

	e, err := c.Lookup("accounts")
	require.NoError(t, err)
	require.Equal(t, uint32(3), e.RootPage)
	require.Equal(t, Table, e.Kind)

	e2, err := c.Lookup("accounts_by_email")
	require.NoError(t, err)
	require.Equal(t, uint32(7), e2.RootPage)
	require.Equal(t, Index, e2.Kind)
}

func TestLookupMissing(t *testing.T) {
	c := New()
	_, err := c.Lookup("nope")
	require.Error(t, err)
}

func TestWalkPrefix(t *testing.T) {
	c := New()
	c.Register("accounts", 3, Table)
	c.Register("accounts_by_email", 7, Index)
	c.Register("orders", 9, Table)

	var names []string
	err := c.WalkPrefix("accounts", func(e Entry) error {
		names = append(names, e.Name)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"accounts", "accounts_by_email"}, names)
}

func TestRemove(t *testing.T) {
	c := New()
	c.Register("t", 1, Table)
	c.Remove("t")
	_, err := c.Lookup("t")
	require.Error(t, err)
}
