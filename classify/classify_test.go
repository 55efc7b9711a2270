package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Table(t *testing.T) {
	cases := []struct {
		status int
		want   Classification
	}{
		{401, Classification{Permanent: true, EvictKey: true}},
		{403, Classification{Permanent: true, EvictKey: true}},
		{404, Classification{Permanent: true, DropModel: true}},
		{400, Classification{Permanent: true, DropModel: true}},
		{422, Classification{Permanent: true, DropModel: true}},
		{429, Classification{}},
		{500, Classification{}},
		{503, Classification{}},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Status(c.status), "status %d", c.status)
	}
}

func TestStatus_404NeverEvicts(t *testing.T) {
	got := Status(404)
	assert.False(t, got.EvictKey)
	assert.True(t, got.DropModel)
}

func TestStatus_401AlwaysEvictsAndIsPermanent(t *testing.T) {
	got := Status(401)
	assert.True(t, got.EvictKey)
	assert.True(t, got.Permanent)
	assert.False(t, got.DropModel)
}
