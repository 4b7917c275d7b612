package midijack

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/aethertone/midi/sdk/contracts"
	"go.uber.org/multierr"
)

// drainTimeout bounds how long ClosePort waits for the process callback to
// acknowledge the shutdown request. It guarantees progress even if the
// server has stopped invoking callbacks.
const drainTimeout = time.Second

// ErrBufferFull is returned by SendMessage when the outbound ringbuffers
// cannot take the whole message. The message is dropped.
var ErrBufferFull = errors.New("midijack: outbound buffer full, message dropped")

// MidiOut is the JACK output backend. SendMessage frames messages into a
// pair of SPSC ringbuffers from the user thread; the process callback drains
// them into the port's period buffer on the server's real-time thread.
type MidiOut struct {
	logger     contracts.Logger
	clientName string
	driver     Driver
	data       jackData
	localName  string
	closeOnce  sync.Once
}

// NewMIDIOut builds an output client from the given options. A missing
// server is a warning, not an error; messages sent before the server is
// reachable accumulate in the ringbuffers.
func NewMIDIOut(opts *contracts.ClientOptions) (contracts.MIDIOut, error) {
	return newMidiOut(defaultDriver(), opts), nil
}

func newMidiOut(driver Driver, opts *contracts.ClientOptions) *MidiOut {
	m := &MidiOut{
		logger:     opts.Logger,
		clientName: opts.ClientName,
		driver:     driver,
	}
	m.data.shutdownReq = newBinarySemaphore()
	m.data.shutdownAck = newBinarySemaphore()
	m.connect()
	return m
}

// connect creates the ringbuffer pair once, then lazily opens the server
// client, registers the process callback and activates it.
func (m *MidiOut) connect() {
	if m.data.buffSize == nil {
		m.data.buffSize = newRingBuffer(ringBufferSize)
		m.data.buffMessage = newRingBuffer(ringBufferSize)
		m.data.scratch = make([]byte, m.data.buffMessage.Capacity())
	}
	if m.data.client != nil {
		return
	}
	client, err := m.driver.Open(m.clientName)
	if err != nil {
		m.logger.Warn("JACK server not running?", m.logger.Field().Error("error", err))
		return
	}
	if err := client.SetProcessCallback(m.data.processOut); err != nil {
		m.logger.Error("failed to register process callback", m.logger.Field().Error("error", err))
		client.Close()
		return
	}
	if err := client.Activate(); err != nil {
		m.logger.Error("failed to activate client", m.logger.Field().Error("error", err))
		client.Close()
		return
	}
	m.data.client = client
}

// OpenPort registers the output port and connects it to the peer input port
// at the given index. An out-of-range index warns and leaves the port
// unconnected.
func (m *MidiOut) OpenPort(port int, name string) error {
	m.connect()
	if err := m.data.register(name, Out); err != nil {
		return err
	}
	peer := m.PortName(port)
	if peer == "" {
		return nil
	}
	slot := m.data.port.Load()
	if err := m.data.client.ConnectPorts(slot.p.Name(), peer); err != nil {
		m.logger.Warn("failed to connect peer port",
			m.logger.Field().String("peer", peer),
			m.logger.Field().Error("error", err))
	}
	return nil
}

// OpenVirtualPort registers the output port without connecting any peer.
func (m *MidiOut) OpenVirtualPort(name string) error {
	m.connect()
	return m.data.register(name, Out)
}

// ClosePort asks the process callback to acknowledge the drain, waits up to
// drainTimeout, then unregisters the port. After the ack the callback will
// not touch the port's buffer again, so unregistering is safe.
func (m *MidiOut) ClosePort() error {
	if m.data.port.Load() == nil {
		return nil
	}

	m.data.shutdownReq.Notify()
	if !m.data.shutdownAck.WaitTimeout(drainTimeout) {
		m.logger.Warn("timed out waiting for process callback to drain")
	}

	return m.data.unregister()
}

// PortCount reports the number of peer input ports.
func (m *MidiOut) PortCount() int {
	m.connect()
	if m.data.client == nil {
		return 0
	}
	return len(m.data.client.Ports(In))
}

// PortName returns the name of the peer input port at the given index.
func (m *MidiOut) PortName(port int) string {
	m.connect()
	if m.data.client == nil {
		m.logger.Warn("no ports available")
		return ""
	}
	ports := m.data.client.Ports(In)
	if port < 0 || port >= len(ports) {
		m.logger.Warn("port index out of range", m.logger.Field().Int("port", port))
		return ""
	}
	return ports[port]
}

// SetPortName renames the open port, falling back to a local rename when the
// server lacks the capability.
func (m *MidiOut) SetPortName(name string) error {
	slot := m.data.port.Load()
	if slot == nil {
		return ErrPortNotOpen
	}
	if err := slot.p.SetName(name); err != nil {
		if !errors.Is(err, ErrRenameUnsupported) {
			return err
		}
		m.logger.Warn("server cannot rename ports, renaming locally")
		m.localName = name
	}
	return nil
}

// SetClientName is not supported by the JACK backend.
func (m *MidiOut) SetClientName(string) error {
	m.logger.Warn("SetClientName is not implemented for the UNIX_JACK API")
	return nil
}

// CurrentAPI reports the backend tag.
func (m *MidiOut) CurrentAPI() contracts.API {
	return contracts.UnixJack
}

// SendMessage frames one message into the ringbuffer pair: payload first,
// then the fixed-width length record. The consumer gates on readable length
// records, so the payload is always fully visible before its record is.
// Single producer; never blocks.
func (m *MidiOut) SendMessage(bytes []byte) error {
	if len(bytes) == 0 {
		return nil
	}
	if m.data.buffMessage.WriteSpace() < len(bytes) || m.data.buffSize.WriteSpace() < sizeRecordLen {
		m.data.outDropped.Add(1)
		return ErrBufferFull
	}

	m.data.buffMessage.Write(bytes)
	var record [sizeRecordLen]byte
	binary.LittleEndian.PutUint32(record[:], uint32(len(bytes)))
	m.data.buffSize.Write(record[:])
	return nil
}

// Dropped reports how many messages were lost to buffer overflow.
func (m *MidiOut) Dropped() uint64 {
	return m.data.outDropped.Load()
}

// Close drains and unregisters the port, then closes the server client.
// Later calls are no-ops.
func (m *MidiOut) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.ClosePort()
		if m.data.client != nil {
			err = multierr.Append(err, m.data.client.Close())
			m.data.client = nil
		}
	})
	return err
}

// processOut runs on the server's real-time thread once per period. It
// drains every complete message from the ringbuffers into the period buffer
// at frame 0, then services the shutdown handshake.
func (d *jackData) processOut(nframes uint32) int {
	slot := d.port.Load()
	if slot == nil {
		return 0
	}

	buf := slot.p.MidiOutBuffer(nframes)
	var record [sizeRecordLen]byte
	for d.buffSize.ReadSpace() >= sizeRecordLen {
		d.buffSize.Read(record[:])
		n := int(binary.LittleEndian.Uint32(record[:]))
		d.buffMessage.Read(d.scratch[:n])
		if err := buf.Write(0, d.scratch[:n]); err != nil {
			d.outDropped.Add(1)
		}
	}

	if d.shutdownReq.TryWait() {
		d.shutdownAck.Notify()
	}
	return 0
}
