package midijack

import (
	"errors"
	"os"
	"sync"

	"github.com/aethertone/midi/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// queueFullNotice is preallocated so the real-time thread can report queue
// overflow without formatting or allocating.
var queueFullNotice = []byte("\nmidijack: input message queue limit reached\n")

// stderrNotice writes a best-effort, out-of-band notice from the real-time
// thread. Errors are ignored.
func stderrNotice(msg []byte) {
	unix.Write(int(os.Stderr.Fd()), msg)
}

// ErrPortNotOpen is returned by operations that need an open port.
var ErrPortNotOpen = errors.New("midijack: no port open")

// MidiIn is the JACK input backend. It registers an input port, timestamps
// events arriving on the server's real-time thread, and hands each message to
// the user callback or the bounded queue.
type MidiIn struct {
	logger     contracts.Logger
	clientName string
	driver     Driver
	data       jackData
	in         inputState
	localName  string
	closeOnce  sync.Once
}

// NewMIDIIn builds an input client from the given options. A missing server
// is a warning, not an error: the instance degrades (PortCount reports 0)
// until the server is reachable on a later operation.
func NewMIDIIn(opts *contracts.ClientOptions) (contracts.MIDIIn, error) {
	return newMidiIn(defaultDriver(), opts), nil
}

func newMidiIn(driver Driver, opts *contracts.ClientOptions) *MidiIn {
	m := &MidiIn{
		logger:     opts.Logger,
		clientName: opts.ClientName,
		driver:     driver,
	}
	m.in.queue = make(chan contracts.Message, opts.QueueSizeLimit)
	m.in.firstMessage = true
	m.in.filter = opts.MIDIEventFilter
	m.data.in = &m.in
	m.connect()
	return m
}

// connect lazily opens the server client, registers the process callback and
// activates it. Failure to reach the server degrades the instance.
func (m *MidiIn) connect() {
	if m.data.client != nil {
		return
	}
	client, err := m.driver.Open(m.clientName)
	if err != nil {
		m.logger.Warn("JACK server not running?", m.logger.Field().Error("error", err))
		return
	}
	if err := client.SetProcessCallback(m.data.processIn); err != nil {
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

// OpenPort registers the input port and connects the peer output port at the
// given index to it. An out-of-range index warns and leaves the port
// unconnected.
func (m *MidiIn) OpenPort(port int, name string) error {
	m.connect()
	if err := m.data.register(name, In); err != nil {
		return err
	}
	peer := m.PortName(port)
	if peer == "" {
		return nil
	}
	slot := m.data.port.Load()
	if err := m.data.client.ConnectPorts(peer, slot.p.Name()); err != nil {
		m.logger.Warn("failed to connect peer port",
			m.logger.Field().String("peer", peer),
			m.logger.Field().Error("error", err))
	}
	return nil
}

// OpenVirtualPort registers the input port without connecting any peer.
func (m *MidiIn) OpenVirtualPort(name string) error {
	m.connect()
	return m.data.register(name, In)
}

// ClosePort unregisters the port if one is open.
func (m *MidiIn) ClosePort() error {
	return m.data.unregister()
}

// PortCount reports the number of peer output ports.
func (m *MidiIn) PortCount() int {
	m.connect()
	if m.data.client == nil {
		return 0
	}
	return len(m.data.client.Ports(Out))
}

// PortName returns the name of the peer output port at the given index.
func (m *MidiIn) PortName(port int) string {
	m.connect()
	if m.data.client == nil {
		m.logger.Warn("no ports available")
		return ""
	}
	ports := m.data.client.Ports(Out)
	if port < 0 || port >= len(ports) {
		m.logger.Warn("port index out of range", m.logger.Field().Int("port", port))
		return ""
	}
	return ports[port]
}

// SetPortName renames the open port, falling back to a local rename when the
// server lacks the capability.
func (m *MidiIn) SetPortName(name string) error {
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
func (m *MidiIn) SetClientName(string) error {
	m.logger.Warn("SetClientName is not implemented for the UNIX_JACK API")
	return nil
}

// CurrentAPI reports the backend tag.
func (m *MidiIn) CurrentAPI() contracts.API {
	return contracts.UnixJack
}

// SetCallback routes incoming messages to fn instead of the queue.
func (m *MidiIn) SetCallback(fn contracts.MessageHandler) {
	m.in.callback.Store(fn)
}

// CancelCallback restores queue delivery.
func (m *MidiIn) CancelCallback() {
	m.in.callback.Store(contracts.MessageHandler(nil))
}

// Messages returns the bounded input queue.
func (m *MidiIn) Messages() <-chan contracts.Message {
	return m.in.queue
}

// IgnoreTypes drops sysex, time code / clock, or active sensing messages
// before delivery.
func (m *MidiIn) IgnoreTypes(sysex, timeCode, activeSense bool) {
	m.in.ignoreSysex.Store(sysex)
	m.in.ignoreTime.Store(timeCode)
	m.in.ignoreSense.Store(activeSense)
}

// ContinueSysex marks a multi-buffer sysex reassembly in progress on the
// consuming side. Events arriving while it is set are discarded here and
// handled by the reassembling layer.
func (m *MidiIn) ContinueSysex(active bool) {
	m.in.continueSysex.Store(active)
}

// Dropped reports how many messages were lost to queue overflow.
func (m *MidiIn) Dropped() uint64 {
	return m.in.dropped.Load()
}

// Close unregisters the port and closes the server client. Later calls are
// no-ops.
func (m *MidiIn) Close() error {
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

// processIn runs on the server's real-time thread once per period.
func (d *jackData) processIn(nframes uint32) int {
	slot := d.port.Load()
	if slot == nil {
		return 0
	}

	events := slot.p.MidiEvents(nframes)
	for i := range events {
		ev := &events[i]
		if len(ev.Data) == 0 {
			continue
		}

		msg := contracts.Message{Bytes: append([]byte(nil), ev.Data...)}

		// Delta time against the previous event. The first message keeps the
		// zero timestamp; lastTime advances either way.
		now := d.client.Time()
		if d.in.firstMessage {
			d.in.firstMessage = false
		} else {
			msg.Timestamp = float64(now-d.lastTime) * 1e-6
		}
		d.lastTime = now

		// A multi-buffer sysex is being reassembled upstream; this event
		// belongs to it and is handled there.
		if d.in.continueSysex.Load() {
			continue
		}
		if d.in.skip(msg.Bytes[0]) {
			continue
		}

		if fn := d.in.handler(); fn != nil {
			fn(msg)
			continue
		}
		select {
		case d.in.queue <- msg:
		default:
			d.in.dropped.Add(1)
			stderrNotice(queueFullNotice)
		}
	}
	return 0
}
