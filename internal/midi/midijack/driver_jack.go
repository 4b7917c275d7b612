//go:build jack
// +build jack

package midijack

/*
#cgo pkg-config: jack
#include <jack/jack.h>
*/
import "C"

import (
	"fmt"

	"github.com/xthexder/go-jack"
)

// jackDriver talks to a real JACK server through the go-jack binding.
type jackDriver struct{}

func defaultDriver() Driver { return jackDriver{} }

func (jackDriver) Open(clientName string) (Client, error) {
	client, err := jack.ClientOpen(clientName, jack.NoStartServer)
	if err != nil {
		return nil, fmt.Errorf("jack_client_open: %w", err)
	}
	return &jackClient{c: client}, nil
}

type jackClient struct {
	c *jack.Client
}

func (jc *jackClient) SetProcessCallback(cb ProcessCallback) error {
	jc.c.SetProcessCallback(func(nframes uint32) int { return cb(nframes) })
	return nil
}

func (jc *jackClient) Activate() error {
	if err := jc.c.Activate(); err != nil {
		return fmt.Errorf("jack_activate: %w", err)
	}
	return nil
}

func (jc *jackClient) RegisterPort(name string, direction PortDirection) (Port, error) {
	flags := uint64(jack.PortIsInput)
	if direction == Out {
		flags = uint64(jack.PortIsOutput)
	}
	p, err := jc.c.PortRegister(name, jack.DEFAULT_MIDI_TYPE, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("jack_port_register: %w", err)
	}
	return &jackPort{p: p}, nil
}

func (jc *jackClient) UnregisterPort(p Port) error {
	jp, ok := p.(*jackPort)
	if !ok {
		return fmt.Errorf("port does not belong to this client")
	}
	if err := jc.c.PortUnregister(jp.p); err != nil {
		return fmt.Errorf("jack_port_unregister: %w", err)
	}
	return nil
}

// Ports lists MIDI ports of the given direction. go-jack copies the names
// into Go strings and releases the server-allocated list itself.
func (jc *jackClient) Ports(direction PortDirection) []string {
	flags := uint64(jack.PortIsInput)
	if direction == Out {
		flags = uint64(jack.PortIsOutput)
	}
	return jc.c.GetPorts("", jack.DEFAULT_MIDI_TYPE, flags)
}

func (jc *jackClient) ConnectPorts(src, dst string) error {
	if err := jc.c.Connect(src, dst); err != nil {
		return fmt.Errorf("jack_connect: %w", err)
	}
	return nil
}

// Time returns the server's microsecond clock. The binding does not export
// jack_get_time, so this calls it directly.
func (jc *jackClient) Time() uint64 {
	return uint64(C.jack_get_time())
}

func (jc *jackClient) Close() error {
	if err := jc.c.Close(); err != nil {
		return fmt.Errorf("jack_client_close: %w", err)
	}
	return nil
}

type jackPort struct {
	p   *jack.Port
	out jackOutBuffer
}

func (p *jackPort) Name() string { return p.p.GetName() }

// SetName reports ErrRenameUnsupported: the binding exposes neither
// jack_port_rename nor jack_port_set_name, so the backend renames locally.
func (p *jackPort) SetName(string) error {
	return ErrRenameUnsupported
}

func (p *jackPort) MidiEvents(nframes uint32) []RawEvent {
	buf := p.p.GetBuffer(nframes)
	count := jack.MidiGetEventCount(buf)
	events := make([]RawEvent, 0, count)
	for i := uint32(0); i < count; i++ {
		ev, err := jack.MidiEventGet(buf, i)
		if err != nil {
			continue
		}
		events = append(events, RawEvent{Frame: ev.Time, Data: ev.Buffer})
	}
	return events
}

// MidiOutBuffer reuses a single wrapper per port so acquiring the period
// buffer does not allocate on the real-time thread.
func (p *jackPort) MidiOutBuffer(nframes uint32) OutBuffer {
	p.out.buf = p.p.GetBuffer(nframes)
	jack.MidiClearBuffer(p.out.buf)
	return &p.out
}

type jackOutBuffer struct {
	buf *jack.PortBuffer
}

func (b *jackOutBuffer) Write(frame uint32, data []byte) error {
	if err := jack.MidiEventWrite(b.buf, frame, data); err != nil {
		return fmt.Errorf("jack_midi_event_write: %w", err)
	}
	return nil
}
