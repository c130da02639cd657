package kvdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", (&Conf{}).Addr())
	assert.Equal(t, "cache.internal:6380", (&Conf{Host: "cache.internal", Port: 6380}).Addr())
	assert.Equal(t, "[::1]:6379", (&Conf{Host: "::1"}).Addr())
}
