package notify

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/juscheck/internal/model"
)

// IMAPCopier appends sent notifications to an IMAP mailbox.
type IMAPCopier struct {
	cfg model.SentCopyConfig
	now func() time.Time
}

// NewIMAPCopier returns a copier for cfg, or nil when no host is configured.
func NewIMAPCopier(cfg model.SentCopyConfig) *IMAPCopier {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "Sent"
	}
	return &IMAPCopier{cfg: cfg, now: time.Now}
}

// Append stores raw in the configured mailbox, marked as seen.
func (c *IMAPCopier) Append(ctx context.Context, raw []byte) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	cmd := client.Append(c.cfg.Mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  c.now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		return fmt.Errorf("writing IMAP append: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing IMAP append: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", c.cfg.Mailbox, err)
	}

	return client.Logout().Wait()
}

// connect establishes a connection to the IMAP server and authenticates.
// The caller is responsible for closing the returned client.
func (c *IMAPCopier) connect(_ context.Context) (*imapclient.Client, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var (
		client *imapclient.Client
		err    error
	)
	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("IMAP login as %s: %w", c.cfg.Username, err)
	}

	return client, nil
}
