package packet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	sender := NewConnWithTimeout(clientSide, time.Second, time.Second, 4096)
	receiver := NewConnWithTimeout(serverSide, time.Second, time.Second, 4096)

	payload := []byte{0x03, 'S', 'E', 'L'}
	data := append([]byte{0, 0, 0, 0}, payload...)

	go func() {
		_ = sender.WritePacket(data)
	}()

	got, err := receiver.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestSequenceMismatch(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	receiver := NewConnWithTimeout(serverSide, time.Second, time.Second, 4096)

	go func() {
		// frame with wrong sequence number 5
		_, _ = clientSide.Write([]byte{1, 0, 0, 5, 0xAA})
	}()

	_, err := receiver.ReadPacket()
	require.Error(t, err)
}

func TestResetSequence(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	c := NewConnWithTimeout(clientSide, time.Second, time.Second, 4096)
	c.Sequence = 9
	c.ResetSequence()
	require.Equal(t, uint8(0), c.Sequence)
}
