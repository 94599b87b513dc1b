package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/juscheck/internal/model"
)

func TestNewIMAPCopier(t *testing.T) {
	assert.Nil(t, NewIMAPCopier(model.SentCopyConfig{}))

	c := NewIMAPCopier(model.SentCopyConfig{Host: "imap.example.com", Port: 993, TLS: true})
	require.NotNil(t, c)
	assert.Equal(t, "Sent", c.cfg.Mailbox)

	c = NewIMAPCopier(model.SentCopyConfig{Host: "imap.example.com", Mailbox: "Enviados"})
	require.NotNil(t, c)
	assert.Equal(t, "Enviados", c.cfg.Mailbox)
}
