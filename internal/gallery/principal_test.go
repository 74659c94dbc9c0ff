package gallery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kozaktomas/snapx/internal/database"
)

func TestPrincipalOwns(t *testing.T) {
	c := &database.Collection{ID: "c", OwnerID: "alice"}

	assert.True(t, Principal{ID: "alice"}.Owns(c))
	assert.False(t, Principal{ID: "bob"}.Owns(c))
	assert.False(t, Anonymous().Owns(c))
	assert.False(t, Anonymous().Owns(&database.Collection{OwnerID: ""}), "anonymous never owns")
	assert.False(t, Principal{ID: "alice"}.Owns(nil))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.True(t, PrincipalFrom(ctx).IsAnonymous())

	ctx = WithPrincipal(ctx, Principal{ID: "alice"})
	assert.Equal(t, "alice", PrincipalFrom(ctx).ID)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Jan   Novák ", "Jan Novák"},
		{"Jir\u030c", "Ji\u0159"},
		{"tab\tseparated", "tab separated"},
		{"bell\u0007", "bell"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.in))
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "line one\nline two", NormalizeDescription(" line one\r\nline two\u0000 "))
}
