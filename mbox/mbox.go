package mbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/dhcgn/emlbox/filter"
)

// MboxMessage represents a single message from an mbox file for stats.
type MboxMessage struct {
	Headers mail.Header
	// RawHeader is the undecoded header block, used for filtering.
	RawHeader []byte
	Body      []byte
}

// Read opens an mbox file and iterates through its messages,
// calling the provided callback for each message.
func Read(path string, logger *slog.Logger, callback func(m *MboxMessage) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	return ReadFrom(file, logger, callback)
}

// ReadFrom is Read over an already opened archive.
func ReadFrom(r io.Reader, logger *slog.Logger, callback func(m *MboxMessage) error) error {
	reader := mboxlib.NewReader(r)

	for idx := 0; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return fmt.Errorf("message %d read: %w", idx, err)
		}

		entity, err := message.Read(bytes.NewReader(raw))
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			// try to continue
			if logger != nil {
				logger.Debug("skipping unparsable message", "index", idx, "err", err)
			}
			continue
		}

		body, err := io.ReadAll(entity.Body)
		if err != nil {
			// try to continue
			if logger != nil {
				logger.Debug("skipping unreadable body", "index", idx, "err", err)
			}
			continue
		}

		header, _ := filter.SplitRawMessage(raw)
		mboxMsg := &MboxMessage{
			Headers:   mail.Header{Header: entity.Header},
			RawHeader: header,
			Body:      body,
		}

		if err := callback(mboxMsg); err != nil {
			return err
		}
	}
}

// CountMessages counts the total number of messages in an mbox file.
func CountMessages(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)

	count := 0
	for {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return 0, err
		}

		// Just consume the message without parsing
		if _, err := io.Copy(io.Discard, msgReader); err != nil {
			return 0, fmt.Errorf("message %d read: %w", count, err)
		}
		count++
	}
}

// Text returns a decoded header value, falling back to the raw field when
// the encoded words cannot be decoded.
func (m *MboxMessage) Text(name string) string {
	if v, err := m.Headers.Text(name); err == nil {
		return v
	}
	return m.Headers.Get(name)
}

// Sender returns the first address of the From header, or the raw value.
func (m *MboxMessage) Sender() string {
	addrs, err := m.Headers.AddressList("From")
	if err == nil && len(addrs) > 0 {
		return addrs[0].Address
	}
	return m.Headers.Get("From")
}
