package midijack

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aethertone/midi/sdk/contracts"
)

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Info(string, ...contracts.Field)  {}
func (nopLogger) Error(string, ...contracts.Field) {}
func (nopLogger) Debug(string, ...contracts.Field) {}
func (nopLogger) Warn(string, ...contracts.Field)  {}
func (nopLogger) Fatal(string, ...contracts.Field) {}
func (nopLogger) Field() contracts.Field           { return nopField{} }
func (nopLogger) SetLevel(contracts.LogLevel)      {}

type nopField struct{}

func (nopField) Bool(string, bool) contracts.Field       { return nopField{} }
func (nopField) Int(string, int) contracts.Field         { return nopField{} }
func (nopField) Float64(string, float64) contracts.Field { return nopField{} }
func (nopField) String(string, string) contracts.Field   { return nopField{} }
func (nopField) Time(string, time.Time) contracts.Field  { return nopField{} }
func (nopField) Int64(string, int64) contracts.Field     { return nopField{} }
func (nopField) Error(string, error) contracts.Field     { return nopField{} }
func (nopField) Uint64(string, uint64) contracts.Field   { return nopField{} }
func (nopField) Uint8(string, uint8) contracts.Field     { return nopField{} }

func testOptions() *contracts.ClientOptions {
	return &contracts.ClientOptions{
		Logger:         nopLogger{},
		ClientName:     "t1",
		QueueSizeLimit: 100,
	}
}

// fakeDriver stands in for the JACK binding: one in-process server whose
// process callbacks the tests invoke directly.
type fakeDriver struct {
	server   *fakeServer
	failOpen bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{server: &fakeServer{}}
}

func (d *fakeDriver) Open(string) (Client, error) {
	if d.failOpen {
		return nil, errors.New("server not running")
	}
	return d.server.newClient(), nil
}

type externalPort struct {
	name string
	dir  PortDirection
}

type fakeServer struct {
	mu          sync.Mutex
	now         atomic.Uint64 // microseconds
	external    []externalPort
	clients     []*fakeClient
	connections [][2]string
}

func (s *fakeServer) newClient() *fakeClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &fakeClient{server: s}
	s.clients = append(s.clients, c)
	return c
}

func (s *fakeServer) addExternalPort(name string, dir PortDirection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = append(s.external, externalPort{name, dir})
}

func (s *fakeServer) advance(micros uint64) {
	s.now.Add(micros)
}

func (s *fakeServer) portNames(dir PortDirection) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, p := range s.external {
		if p.dir == dir {
			names = append(names, p.name)
		}
	}
	for _, c := range s.clients {
		for _, p := range c.ports {
			if p.dir == dir {
				names = append(names, p.Name())
			}
		}
	}
	return names
}

func (s *fakeServer) connected() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.connections...)
}

type fakeClient struct {
	server       *fakeServer
	cb           ProcessCallback
	active       bool
	failRegister bool
	closed       atomic.Int32
	ports        []*fakePort // guarded by server.mu
	unregisters  atomic.Int32
}

func (c *fakeClient) SetProcessCallback(cb ProcessCallback) error {
	c.cb = cb
	return nil
}

func (c *fakeClient) Activate() error {
	c.active = true
	return nil
}

func (c *fakeClient) RegisterPort(name string, dir PortDirection) (Port, error) {
	if c.failRegister {
		return nil, errors.New("port registration refused")
	}
	p := &fakePort{name: name, dir: dir}
	c.server.mu.Lock()
	c.ports = append(c.ports, p)
	c.server.mu.Unlock()
	return p, nil
}

func (c *fakeClient) UnregisterPort(p Port) error {
	fp := p.(*fakePort)
	c.unregisters.Add(1)
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	for i, q := range c.ports {
		if q == fp {
			c.ports = append(c.ports[:i], c.ports[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unknown port %q", fp.Name())
}

func (c *fakeClient) Ports(dir PortDirection) []string {
	return c.server.portNames(dir)
}

func (c *fakeClient) ConnectPorts(src, dst string) error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.connections = append(c.server.connections, [2]string{src, dst})
	return nil
}

func (c *fakeClient) Time() uint64 {
	return c.server.now.Load()
}

func (c *fakeClient) Close() error {
	c.closed.Add(1)
	return nil
}

// cycle runs one process period and returns the events the callback wrote to
// this client's output ports.
func (c *fakeClient) cycle(nframes uint32) []RawEvent {
	if c.cb != nil {
		c.cb(nframes)
	}
	c.server.mu.Lock()
	ports := append([]*fakePort(nil), c.ports...)
	c.server.mu.Unlock()
	var out []RawEvent
	for _, p := range ports {
		if p.dir == Out {
			out = append(out, p.writtenEvents()...)
		}
	}
	return out
}

type fakePort struct {
	mu      sync.Mutex
	name    string
	dir     PortDirection
	pending []RawEvent
	written []RawEvent
	full    bool // force period-buffer overflow
}

func (p *fakePort) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *fakePort) SetName(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
	return nil
}

// stage queues an inbound event for the next period.
func (p *fakePort) stage(frame uint32, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, RawEvent{Frame: frame, Data: append([]byte(nil), data...)})
}

func (p *fakePort) MidiEvents(uint32) []RawEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.pending
	p.pending = nil
	return events
}

func (p *fakePort) MidiOutBuffer(uint32) OutBuffer {
	p.mu.Lock()
	p.written = p.written[:0]
	p.mu.Unlock()
	return fakeOutBuffer{p: p}
}

func (p *fakePort) writtenEvents() []RawEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RawEvent(nil), p.written...)
}

type fakeOutBuffer struct {
	p *fakePort
}

func (b fakeOutBuffer) Write(frame uint32, data []byte) error {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	if b.p.full {
		return errors.New("period buffer full")
	}
	b.p.written = append(b.p.written, RawEvent{Frame: frame, Data: append([]byte(nil), data...)})
	return nil
}

// fakePortOf digs the registered fake port out of the shared state.
func fakePortOf(d *jackData) *fakePort {
	slot := d.port.Load()
	if slot == nil {
		return nil
	}
	return slot.p.(*fakePort)
}

func fakeClientOf(d *jackData) *fakeClient {
	if d.client == nil {
		return nil
	}
	return d.client.(*fakeClient)
}
