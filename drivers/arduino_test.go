package drivers

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.bug.st/serial"

	"husk/canbus"
)

// mockSerialPort is a minimal in-memory serial.Port for driver tests.
type mockSerialPort struct {
	readBuf     []byte
	writeBuf    []byte
	readMutex   sync.Mutex
	writeMutex  sync.Mutex
	readIndex   int
	readTimeout time.Duration
	closed      bool
}

func (m *mockSerialPort) Read(p []byte) (int, error) {
	m.readMutex.Lock()
	defer m.readMutex.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	if m.readIndex >= len(m.readBuf) {
		if m.readTimeout > 0 {
			time.Sleep(m.readTimeout)
		}
		return 0, nil
	}
	n := copy(p, m.readBuf[m.readIndex:])
	m.readIndex += n
	return n, nil
}

func (m *mockSerialPort) Write(p []byte) (int, error) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	m.writeBuf = append(m.writeBuf, p...)
	return len(p), nil
}

func (m *mockSerialPort) feed(data []byte) {
	m.readMutex.Lock()
	defer m.readMutex.Unlock()
	m.readBuf = append(m.readBuf, data...)
}

func (m *mockSerialPort) written() []byte {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	return append([]byte{}, m.writeBuf...)
}

func (m *mockSerialPort) ResetInputBuffer() error  { return nil }
func (m *mockSerialPort) ResetOutputBuffer() error { return nil }
func (m *mockSerialPort) Close() error {
	m.closed = true
	return nil
}
func (m *mockSerialPort) SetMode(_ *serial.Mode) error           { return nil }
func (m *mockSerialPort) SetReadTimeout(t time.Duration) error   { m.readTimeout = t; return nil }
func (m *mockSerialPort) Drain() error                           { return nil }
func (m *mockSerialPort) SetDTR(_ bool) error                    { return nil }
func (m *mockSerialPort) SetRTS(_ bool) error                    { return nil }
func (m *mockSerialPort) Break(_ time.Duration) error            { return nil }
func (m *mockSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func TestArduinoEncodeDecodeRoundTrip(t *testing.T) {
	frame := canbus.Frame{ID: 0x123, Data: []byte{0x01, 0x02, 0x03}}

	encoded := encodeFrame(frame)
	require.Equal(t, byte(frameStartMarker), encoded[0])
	require.Equal(t, byte(frameEndMarker), encoded[len(encoded)-1])

	mockPort := &mockSerialPort{}
	mockPort.feed(encoded)
	d, err := newArduinoDriverOnOpenPort(context.Background(), mockPort)
	require.NoError(t, err)
	defer d.Close()

	select {
	case got := <-d.Subscribe():
		require.Equal(t, frame.ID, got.ID)
		require.Equal(t, frame.Data, got.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decoded frame")
	}
}

func TestArduinoEncodeByteStuffing(t *testing.T) {
	frame := canbus.Frame{
		ID:   0x7E7F,
		Data: []byte{frameStartMarker, frameEndMarker, frameEscapeChar},
	}

	encoded := encodeFrame(frame)
	unstuffed, err := readAndUnstuff(bufio.NewReader(bytes.NewReader(encoded)), context.Background())
	require.NoError(t, err)
	decoded, err := decodeFrame(unstuffed)
	require.NoError(t, err)
	require.Equal(t, frame.ID, decoded.ID)
	require.Equal(t, frame.Data, decoded.Data)
}

func TestArduinoDecodeChecksumMismatch(t *testing.T) {
	frame := canbus.Frame{ID: 0x123, Data: []byte{0x01, 0x02, 0x03}}
	encoded := encodeFrame(frame)
	unstuffed := encoded[1 : len(encoded)-1]
	unstuffed[len(unstuffed)-1] ^= 0xFF

	_, err := decodeFrame(unstuffed)
	require.Error(t, err)
}

func TestArduinoEncodeFDFrame(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	frame := canbus.Frame{ID: 0x736, Data: data, FD: true, BitrateSwitch: true}

	encoded := encodeFrame(frame)
	unstuffed, err := readAndUnstuff(bufio.NewReader(bytes.NewReader(encoded)), context.Background())
	require.NoError(t, err)
	decoded, err := decodeFrame(unstuffed)
	require.NoError(t, err)
	require.True(t, decoded.FD)
	require.True(t, decoded.BitrateSwitch)
	require.Equal(t, data, decoded.Data)
}

func TestArduinoSendWritesStuffedFrame(t *testing.T) {
	mockPort := &mockSerialPort{}
	d, err := newArduinoDriverOnOpenPort(context.Background(), mockPort)
	require.NoError(t, err)
	defer d.Close()

	frame := canbus.Frame{ID: 0x7DF, Data: []byte{0x3E, 0x00}}
	require.NoError(t, d.Send(context.Background(), frame))

	require.Equal(t, encodeFrame(frame), mockPort.written())
}
